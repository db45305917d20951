package mailing

import "github.com/microlearning/site-api/internal/domain"

// emailTemplate is the subject, HTML and text parts of one email.
type emailTemplate struct {
	Subject string
	HTML    string
	Text    string
}

// Bindings available to every template: name, email, message, has_message,
// site_name, site_url, contact_url, tagline, year.
var defaultTemplates = map[domain.EmailTemplate]emailTemplate{
	domain.TemplateConfirmation: {
		Subject: `Thank you for contacting {{ site_name }}`,
		HTML:    confirmationHTML,
		Text:    confirmationText,
	},
	domain.TemplateResend: {
		Subject: `Following up on your {{ site_name }} inquiry`,
		HTML:    resendHTML,
		Text:    resendText,
	},
}

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ site_name | escape }}</title>
</head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f8fafc;">
  <table role="presentation" style="width:100%;border-collapse:collapse;background-color:#f8fafc;">
    <tr><td style="padding:40px 20px;">
      <table role="presentation" style="max-width:600px;margin:0 auto;background-color:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background:linear-gradient(135deg,#14b8a6 0%,#059669 100%);padding:40px 30px;text-align:center;">
          <h1 style="margin:0;color:#ffffff;font-size:28px;font-weight:700;">{{ site_name | escape }}</h1>
          <p style="margin:10px 0 0;color:rgba(255,255,255,0.9);font-size:14px;">{{ tagline | escape }}</p>
        </td></tr>
`

const htmlFooter = `        <tr><td style="background-color:#f8fafc;padding:30px;text-align:center;border-top:1px solid #e2e8f0;">
          <p style="margin:0 0 12px;color:#94a3b8;font-size:12px;">&copy; {{ year }} {{ site_name | escape }}. All rights reserved.</p>
          <p style="margin:0;color:#cbd5e1;font-size:11px;">You're receiving this because you contacted us at {{ site_url | escape }}</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const confirmationHTML = htmlHeader + `        <tr><td style="padding:40px 30px;">
          <h2 style="margin:0 0 20px;color:#0f172a;font-size:24px;">Thank you for reaching out, {{ name | escape | default: "there" }}!</h2>
          <p style="margin:0 0 16px;color:#475569;font-size:16px;line-height:1.6;">We've received your message and our team will review it shortly. Here's what you can expect:</p>
          <ul style="margin:0 0 24px;padding-left:20px;color:#475569;font-size:16px;line-height:1.8;">
            <li>Our team will respond within 24 hours</li>
            <li>We'll provide personalized recommendations for your needs</li>
            <li>You'll learn how we can help your frontline workforce</li>
          </ul>
{% if has_message %}          <div style="background-color:#f1f5f9;border-left:4px solid #14b8a6;padding:16px 20px;margin:24px 0;border-radius:4px;">
            <p style="margin:0 0 8px;color:#64748b;font-size:12px;text-transform:uppercase;font-weight:600;">Your Message</p>
            <p style="margin:0;color:#334155;font-size:14px;line-height:1.6;">{{ message | escape | nl2br }}</p>
          </div>
{% endif %}          <div style="margin:32px 0;text-align:center;">
            <a href="{{ site_url | escape }}" style="display:inline-block;background:#14b8a6;color:#ffffff;text-decoration:none;padding:14px 32px;border-radius:6px;font-weight:600;">Visit Our Website</a>
          </div>
        </td></tr>
` + htmlFooter

const confirmationText = `{{ site_name }} - Thank you for reaching out!

Hi {{ name | default: "there" }},

We've received your message and our team will review it shortly.

What to expect:
- Our team will respond within 24 hours
- We'll provide personalized recommendations for your needs
- You'll learn how we can help your frontline workforce
{% if has_message %}
Your Message:
{{ message }}
{% endif %}
Visit us at: {{ site_url }}

---
(c) {{ year }} {{ site_name }}. All rights reserved.`

const resendHTML = htmlHeader + `        <tr><td style="padding:40px 30px;">
          <h2 style="margin:0 0 20px;color:#0f172a;font-size:24px;">Still interested, {{ name | escape | default: "there" }}?</h2>
          <p style="margin:0 0 16px;color:#475569;font-size:16px;line-height:1.6;">We wanted to follow up on your recent inquiry about {{ site_name | escape }}. We're here to help answer any questions you might have!</p>
          <ul style="margin:0 0 24px;padding-left:20px;color:#475569;font-size:16px;line-height:1.8;">
            <li><strong>No App Required</strong> - Training via WhatsApp, SMS &amp; Telegram</li>
            <li><strong>12+ Languages</strong> - Reach every worker in their language</li>
            <li><strong>2-3 Minute Modules</strong> - Bite-sized learning that works</li>
          </ul>
          <div style="background-color:#f0fdfa;border:2px solid #14b8a6;padding:20px;margin:24px 0;border-radius:8px;text-align:center;">
            <p style="margin:0 0 12px;color:#0f172a;font-size:18px;font-weight:600;">Ready to see it in action?</p>
            <p style="margin:0 0 16px;color:#475569;font-size:14px;">Book a 7-day pilot and experience the difference</p>
            <a href="{{ contact_url | escape }}" style="display:inline-block;background:#14b8a6;color:#ffffff;text-decoration:none;padding:14px 32px;border-radius:6px;font-weight:600;">Book Your Pilot</a>
          </div>
          <p style="margin:24px 0 0;color:#64748b;font-size:14px;line-height:1.6;">Have questions? Simply reply to this email and our team will get back to you right away.</p>
        </td></tr>
` + htmlFooter

const resendText = `{{ site_name }} - Following up on your inquiry

Hi {{ name | default: "there" }},

We wanted to follow up on your recent inquiry about {{ site_name }}. We're here to help answer any questions you might have!

- No App Required: training via WhatsApp, SMS & Telegram
- 12+ Languages: reach every worker in their language
- 2-3 Minute Modules: bite-sized learning that works

Ready to see it in action? Book a 7-day pilot:
{{ contact_url }}

Have questions? Simply reply to this email.

---
(c) {{ year }} {{ site_name }}. All rights reserved.
You're receiving this because you contacted us at {{ site_url }}`
