package template

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"time"

	"github.com/yuin/goldmark"
)

// EmailOptions carries the recipient-independent shell fields plus the
// per-recipient greeting and links.
type EmailOptions struct {
	BrandName      string
	LogoURL        string
	RecipientName  string
	CTALabel       string
	CTAURL         string
	UnsubscribeURL string
}

// RenderEmailHTML converts a merged markdown body into a full HTML email
// document inside the fixed brand shell. Markdown supports paragraphs,
// headings, emphasis, links, horizontal rules and lists; raw HTML in the body
// is not passed through.
func RenderEmailHTML(markdownBody string, opts EmailOptions) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(markdownBody), &body); err != nil {
		return "", fmt.Errorf("render markdown body: %w", err)
	}

	data := struct {
		EmailOptions
		Body htmltemplate.HTML
		Year int
	}{
		EmailOptions: opts,
		Body:         htmltemplate.HTML(body.String()),
		Year:         time.Now().Year(),
	}

	var out bytes.Buffer
	if err := shellTmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render email shell: %w", err)
	}
	return out.String(), nil
}

var shellTmpl = htmltemplate.Must(htmltemplate.New("email").Parse(emailShell))

const emailShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f2ee;font-family:Helvetica,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background-color:#f4f2ee;">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="max-width:600px;width:100%;">
<tr><td align="center" style="padding-bottom:16px;">
{{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.BrandName}}" height="40" style="display:block;">{{else}}<span style="font-size:18px;font-weight:bold;letter-spacing:2px;color:#1a1a1a;">{{.BrandName}}</span>{{end}}
</td></tr>
<tr><td style="background-color:#ffffff;border-radius:8px;padding:32px;color:#1a1a1a;font-size:15px;line-height:1.6;">
{{if .RecipientName}}<p style="margin-top:0;">Hi {{.RecipientName}},</p>{{end}}
{{.Body}}
{{if .CTAURL}}<table role="presentation" cellpadding="0" cellspacing="0" style="margin:24px auto 8px;"><tr><td style="background-color:#1a1a1a;border-radius:4px;">
<a href="{{.CTAURL}}" style="display:inline-block;padding:12px 28px;color:#ffffff;text-decoration:none;font-size:14px;">{{.CTALabel}}</a>
</td></tr></table>{{end}}
</td></tr>
<tr><td align="center" style="padding:20px 12px;color:#8a857c;font-size:12px;line-height:1.5;">
<p style="margin:0;">&copy; {{.Year}} {{.BrandName}}. All rights reserved.</p>
{{if .UnsubscribeURL}}<p style="margin:6px 0 0;"><a href="{{.UnsubscribeURL}}" style="color:#8a857c;">Unsubscribe from press updates</a></p>{{end}}
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`
