package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in announcement markdown is escaped; WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const layout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2d1f">
<h2>{{.Title}}</h2>
{{.Body}}
<p style="color:#6b7b6b;font-size:12px">COP Side Events</p>
</body></html>`

var (
	layoutTmpl = template.Must(template.New("layout").Parse(layout))

	activationTmpl = template.Must(template.New("activation").Parse(
		`<p>Hello {{.Name}},</p>
<p>Please confirm your email address to activate your account.</p>
<p><a href="{{.Link}}">Activate account</a></p>
<p>The link expires in {{.TTL}}.</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>Hello {{.Name}},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>If you did not ask for this you can ignore this email. The link expires in {{.TTL}}.</p>`))
)

// Renderer turns mail kinds into HTML bodies. baseURL prefixes links.
type Renderer struct {
	baseURL string
}

func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: baseURL}
}

type linkData struct {
	Name string
	Link string
	TTL  string
}

// Activation renders the account confirmation email.
func (r *Renderer) Activation(name, token, ttl string) (subject, html string, err error) {
	body, err := exec(activationTmpl, linkData{Name: name, Link: r.baseURL + "/v1/auth/activate/" + token, TTL: ttl})
	if err != nil {
		return "", "", err
	}
	subject = "Activate your account"
	html, err = wrap(subject, body)
	return subject, html, err
}

// PasswordReset renders the reset link email.
func (r *Renderer) PasswordReset(name, token, ttl string) (subject, html string, err error) {
	body, err := exec(resetTmpl, linkData{Name: name, Link: r.baseURL + "/reset/" + token, TTL: ttl})
	if err != nil {
		return "", "", err
	}
	subject = "Password reset"
	html, err = wrap(subject, body)
	return subject, html, err
}

// Announcement renders a markdown message under subject.
func (r *Renderer) Announcement(subject, message string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(message), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return wrap(subject, template.HTML(buf.String()))
}

func exec(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func wrap(title string, body template.HTML) (string, error) {
	var buf bytes.Buffer
	err := layoutTmpl.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, body})
	return buf.String(), err
}
