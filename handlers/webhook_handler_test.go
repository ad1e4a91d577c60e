package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/pkg/response"
	"github.com/nightjar-records/pressroom/pkg/svixsig"
)

var webhookTestSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("handler-test-key"))

func postWebhook(t *testing.T, handler *WebhookHandler, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email-events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	if sign {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		sig, err := svixsig.Sign(webhookTestSecret, "msg_test", timestamp, []byte(body))
		if err != nil {
			t.Fatalf("Sign returned error: %v", err)
		}
		req.Header.Set("svix-id", "msg_test")
		req.Header.Set("svix-timestamp", timestamp)
		req.Header.Set("svix-signature", sig)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandleEmailEvents(c); err != nil {
		t.Fatalf("HandleEmailEvents returned error: %v", err)
	}
	return rec
}

// TestHandleEmailEvents_MissingSignature verifies an unsigned request is
// rejected before the service is ever touched (service is nil on purpose).
func TestHandleEmailEvents_MissingSignature(t *testing.T) {
	handler := NewWebhookHandler(nil, webhookTestSecret)

	rec := postWebhook(t, handler, `{"type":"email.delivered"}`, false)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Error != "invalid webhook signature" {
		t.Fatalf("expected generic signature error, got %q", resp.Error)
	}
}

// TestHandleEmailEvents_TamperedBody verifies a signature over different bytes
// is rejected.
func TestHandleEmailEvents_TamperedBody(t *testing.T) {
	handler := NewWebhookHandler(nil, webhookTestSecret)

	e := echo.New()
	body := `{"type":"email.delivered"}`
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := svixsig.Sign(webhookTestSecret, "msg_test", timestamp, []byte(`{"type":"email.bounced"}`))
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/email-events", strings.NewReader(body))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", timestamp)
	req.Header.Set("svix-signature", sig)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandleEmailEvents(c); err != nil {
		t.Fatalf("HandleEmailEvents returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

// TestHandleEmailEvents_MalformedPayload verifies a correctly signed but
// unparseable body is rejected without reaching the service.
func TestHandleEmailEvents_MalformedPayload(t *testing.T) {
	handler := NewWebhookHandler(nil, webhookTestSecret)

	rec := postWebhook(t, handler, `{"type": `, true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Error != "malformed event payload" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}
