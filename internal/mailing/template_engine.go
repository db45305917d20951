// Package mailing renders the contact emails with Liquid templates and
// hands them to a delivery transport.
package mailing

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// TemplateService handles Liquid template rendering with caching
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates a new template service with custom filters
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerCustomFilters()
	return ts
}

func (ts *TemplateService) registerCustomFilters() {
	// {{ name | default: "there" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strings.TrimSpace(strVal) == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ user_input | escape }}
	ts.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	// {{ message | escape | nl2br }}
	ts.engine.RegisterFilter("nl2br", func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.ReplaceAll(s, "\n", "<br>\n")
	})
}

// Parse compiles a template string and returns any syntax errors
func (ts *TemplateService) Parse(templateStr string) error {
	_, err := ts.engine.ParseString(templateStr)
	return err
}

// Render processes a template with the given bindings. Parsed templates
// are cached under cacheKey when it is non-empty.
func (ts *TemplateService) Render(cacheKey string, templateStr string, bindings map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := ts.cache.Load(cacheKey); ok {
			return ts.execute(cached.(*liquid.Template), bindings)
		}
	}

	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", cacheKey, err)
	}
	if cacheKey != "" {
		ts.cache.Store(cacheKey, tpl)
	}
	return ts.execute(tpl, bindings)
}

func (ts *TemplateService) execute(tpl *liquid.Template, bindings map[string]interface{}) (string, error) {
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return out, nil
}
