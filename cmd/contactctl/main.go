package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/microlearning/site-api/internal/app"
	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/service/resend"
)

func main() {
	a := &cli.App{
		Name:  "contactctl",
		Usage: "operate the contact form store and the follow-up sweep",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/config.yaml",
				Usage:   "path to the YAML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "write the sheet header or create the contact table",
				Action: migrate,
			},
			{
				Name:   "check",
				Usage:  "verify the configured store is reachable (lists sheet tabs for the sheets store)",
				Action: check,
			},
			{
				Name:  "sweep",
				Usage: "run one follow-up sweep now",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "list eligible records without sending"},
				},
				Action: sweep,
			},
			{
				Name:   "status",
				Usage:  "print record counts per state",
				Action: status,
			},
		},
	}

	if err := a.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func open(c *cli.Context) (*app.Deps, error) {
	cfg, err := config.LoadFromEnv(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(!cfg.Log.DisableRedaction)
	return app.Open(c.Context, cfg)
}

func migrate(c *cli.Context) error {
	deps, err := open(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.Store.EnsureSchema(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s store ready\n", deps.Config.Store.Type)
	return nil
}

func check(c *cli.Context) error {
	deps, err := open(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.Sheets == nil {
		if err := deps.Store.Ping(c.Context); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s store reachable\n", deps.Config.Store.Type)
		return nil
	}

	titles, err := deps.Sheets.SheetTitles(c.Context)
	if err != nil {
		return err
	}
	return reportSheets(c.App.Writer, titles, deps.Sheets.SheetName())
}

// reportSheets prints the spreadsheet tabs and fails when want is missing.
func reportSheets(w io.Writer, titles []string, want string) error {
	fmt.Fprintln(w, "Sheets in spreadsheet:")
	found := false
	for _, t := range titles {
		marker := " "
		if t == want {
			marker = "*"
			found = true
		}
		fmt.Fprintf(w, " %s %s\n", marker, t)
	}
	if !found {
		return fmt.Errorf("sheet %q not found", want)
	}
	fmt.Fprintf(w, "Configured sheet %q found\n", want)
	return nil
}

func sweep(c *cli.Context) error {
	deps, err := open(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	if c.Bool("dry-run") {
		return listEligible(c.Context, c.App.Writer, deps.Store, time.Now(), deps.Config.Resend.Threshold())
	}

	res, err := deps.ResendService().RunSweep(c.Context)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// listEligible prints the records a sweep started at now would email.
func listEligible(ctx context.Context, w io.Writer, repo resend.Repository, now time.Time, threshold time.Duration) error {
	records, err := repo.FetchAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tEMAIL\tCONFIRMED AT\tSTATUS")
	count := 0
	for _, rec := range records {
		ok, err := resend.Eligible(rec, now, threshold)
		if err != nil {
			fmt.Fprintf(tw, "%d\t%s\t%s\tunreadable timestamp\n", rec.RowIndex, rec.Email, rec.ConfirmationSentAt)
			continue
		}
		if !ok {
			continue
		}
		count++
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rec.RowIndex, rec.Email, rec.ConfirmationSentAt, rec.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d of %d records eligible\n", count, len(records))
	return nil
}

func status(c *cli.Context) error {
	deps, err := open(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	st, err := deps.ResendService().Stats(c.Context)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
