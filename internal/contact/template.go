package contact

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/projectannie/contactd/internal/api/sanitization"
)

// notificationView holds the values interpolated into the templates. For the
// HTML template every field is escaped before rendering; text/template does
// no escaping of its own.
type notificationView struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
	Org     string
}

var htmlTemplate = template.Must(template.New("html").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #C4532A; border-bottom: 2px solid #C4532A; padding-bottom: 10px;">
    New Contact Form Submission
  </h2>

  <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
    <tr>
      <td style="padding: 10px; border-bottom: 1px solid #eee; font-weight: bold; width: 120px;">Name:</td>
      <td style="padding: 10px; border-bottom: 1px solid #eee;">{{.Name}}</td>
    </tr>
    <tr>
      <td style="padding: 10px; border-bottom: 1px solid #eee; font-weight: bold;">Email:</td>
      <td style="padding: 10px; border-bottom: 1px solid #eee;">
        <a href="mailto:{{.Email}}" style="color: #C4532A;">{{.Email}}</a>
      </td>
    </tr>
    {{- if .Phone}}
    <tr>
      <td style="padding: 10px; border-bottom: 1px solid #eee; font-weight: bold;">Phone:</td>
      <td style="padding: 10px; border-bottom: 1px solid #eee;">
        <a href="tel:{{.Phone}}" style="color: #C4532A;">{{.Phone}}</a>
      </td>
    </tr>
    {{- end}}
    <tr>
      <td style="padding: 10px; border-bottom: 1px solid #eee; font-weight: bold;">Subject:</td>
      <td style="padding: 10px; border-bottom: 1px solid #eee;">{{.Subject}}</td>
    </tr>
  </table>

  <div style="background-color: #f9f9f9; padding: 20px; border-radius: 8px; margin-top: 20px;">
    <h3 style="color: #333; margin-top: 0;">Message:</h3>
    <p style="color: #555; line-height: 1.6; white-space: pre-wrap;">{{.Message}}</p>
  </div>

  <p style="color: #888; font-size: 12px; margin-top: 30px; text-align: center;">
    This message was sent from the {{.Org}} website contact form.
  </p>
</div>
`))

var textTemplate = template.Must(template.New("text").Parse(`New Contact Form Submission

Name: {{.Name}}
Email: {{.Email}}
{{- if .Phone}}
Phone: {{.Phone}}
{{- end}}
Subject: {{.Subject}}

Message:
{{.Message}}
`))

// renderNotification builds the HTML and plain-text bodies for sub
func renderNotification(sub *Submission, label, org string) (htmlBody, textBody string, err error) {
	escaped := notificationView{
		Name:    sanitization.EscapeHTML(sub.Name),
		Email:   sanitization.EscapeHTML(sub.Email),
		Phone:   sanitization.EscapeHTML(sub.Phone),
		Subject: sanitization.EscapeHTML(label),
		Message: sanitization.EscapeHTML(sub.Message),
		Org:     sanitization.EscapeHTML(org),
	}

	var html strings.Builder
	if err := htmlTemplate.Execute(&html, escaped); err != nil {
		return "", "", fmt.Errorf("failed to render html notification: %w", err)
	}

	raw := notificationView{
		Name:    sub.Name,
		Email:   sub.Email,
		Phone:   sub.Phone,
		Subject: label,
		Message: sub.Message,
		Org:     org,
	}

	var text strings.Builder
	if err := textTemplate.Execute(&text, raw); err != nil {
		return "", "", fmt.Errorf("failed to render text notification: %w", err)
	}

	return html.String(), text.String(), nil
}

// notificationSubject returns "[Contact Form] {label} - from {name}" as a
// single header-safe line
func notificationSubject(label, name string) string {
	return sanitization.SanitizeHeader(fmt.Sprintf("[Contact Form] %s - from %s", label, name))
}
