package handlers

import (
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/internal/service"
	"github.com/nightjar-records/pressroom/pkg/logger"
)

// The unsubscribe pages are served to recipients, not API clients, so they
// render as plain HTML rather than the JSON envelope.
const unsubscribePageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background: #f4f4f5; margin: 0; padding: 48px 16px; }
.card { max-width: 420px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
h1 { font-size: 20px; margin: 0 0 12px; color: #18181b; }
p { color: #52525b; line-height: 1.5; margin: 0 0 20px; }
.email { font-weight: 600; color: #18181b; }
button { background: #18181b; color: #ffffff; border: none; border-radius: 6px; padding: 10px 20px; font-size: 15px; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
<h1>{{.Title}}</h1>
<p>{{.Message}}{{if .Email}} <span class="email">{{.Email}}</span>{{end}}</p>
{{if .ShowForm}}
<form method="POST">
<input type="hidden" name="token" value="{{.Token}}">
<button type="submit">Unsubscribe</button>
</form>
{{end}}
</div>
</body>
</html>`

var unsubscribePage = template.Must(template.New("unsubscribe").Parse(unsubscribePageShell))

type unsubscribePageData struct {
	Title    string
	Message  string
	Email    string
	Token    string
	ShowForm bool
}

type UnsubscribeHandler struct {
	service *service.UnsubscribeService
}

func NewUnsubscribeHandler(svc *service.UnsubscribeService) *UnsubscribeHandler {
	return &UnsubscribeHandler{service: svc}
}

func (h *UnsubscribeHandler) renderPage(c echo.Context, status int, data unsubscribePageData) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return unsubscribePage.Execute(c.Response(), data)
}

// invalidLinkPage is the single answer for every failed token, so the page
// never reveals whether a link was expired, tampered with or never valid.
func (h *UnsubscribeHandler) invalidLinkPage(c echo.Context) error {
	return h.renderPage(c, http.StatusBadRequest, unsubscribePageData{
		Title:   "This link cannot be used",
		Message: "The unsubscribe link is invalid or has expired. If you still want to opt out, reply to the original email instead.",
	})
}

// Confirm godoc
// @Summary Unsubscribe confirmation page
// @Description Renders a confirmation page for a signed unsubscribe token
// @Tags unsubscribe
// @Produce html
// @Param token query string true "Signed unsubscribe token"
// @Success 200 {string} string "HTML confirmation page"
// @Failure 400 {string} string "HTML error page"
// @Router /unsubscribe [get]
func (h *UnsubscribeHandler) Confirm(c echo.Context) error {
	tok := c.QueryParam("token")
	payload, err := h.service.Lookup(tok)
	if err != nil {
		return h.invalidLinkPage(c)
	}

	return h.renderPage(c, http.StatusOK, unsubscribePageData{
		Title:    "Unsubscribe from our emails",
		Message:  "Click below to stop receiving emails at",
		Email:    payload.Email,
		Token:    tok,
		ShowForm: true,
	})
}

// Submit godoc
// @Summary Record an unsubscribe
// @Description Verifies the token and records an opt-out suppression
// @Tags unsubscribe
// @Accept x-www-form-urlencoded
// @Produce html
// @Param token formData string true "Signed unsubscribe token"
// @Success 200 {string} string "HTML done page"
// @Failure 400 {string} string "HTML error page"
// @Router /unsubscribe [post]
func (h *UnsubscribeHandler) Submit(c echo.Context) error {
	tok := c.FormValue("token")
	if tok == "" {
		tok = c.QueryParam("token")
	}

	if err := h.service.Confirm(c.Request().Context(), tok, c.Request().UserAgent()); err != nil {
		logger.Warnf("unsubscribe rejected: %v", err)
		return h.invalidLinkPage(c)
	}

	return h.renderPage(c, http.StatusOK, unsubscribePageData{
		Title:   "You're unsubscribed",
		Message: "You won't receive any more emails from us. It may take a short while for in-flight sends to stop.",
	})
}
