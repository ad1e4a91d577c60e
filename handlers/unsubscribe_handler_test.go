package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/internal/service"
	"github.com/nightjar-records/pressroom/pkg/token"
)

func newUnsubscribeHandlerForTest() (*UnsubscribeHandler, *token.Signer) {
	signer := token.NewSigner("handler-test-secret")
	// The store is nil on purpose: these paths must resolve before any write.
	svc := service.NewUnsubscribeService(nil, signer)
	return NewUnsubscribeHandler(svc), signer
}

func TestConfirmPage_ValidToken(t *testing.T) {
	handler, signer := newUnsubscribeHandlerForTest()

	tok, err := signer.Sign(token.Payload{
		Email:     "maya@example.com",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token="+url.QueryEscape(tok), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Confirm(c); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "maya@example.com") {
		t.Fatalf("expected the address on the confirmation page, got:\n%s", body)
	}
	if !strings.Contains(body, `method="POST"`) {
		t.Fatalf("expected a confirmation form, got:\n%s", body)
	}
}

// TestConfirmPage_InvalidToken verifies every broken token gets the same
// generic page with no hint about the failure.
func TestConfirmPage_InvalidToken(t *testing.T) {
	handler, signer := newUnsubscribeHandlerForTest()

	expired, err := signer.Sign(token.Payload{
		Email:     "maya@example.com",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	for _, tok := range []string{"", "garbage", expired} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token="+url.QueryEscape(tok), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler.Confirm(c); err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for token %q, got %d", tok, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "This link cannot be used") {
			t.Fatalf("expected the generic error page for token %q", tok)
		}
	}
}

func TestSubmit_InvalidToken(t *testing.T) {
	handler, _ := newUnsubscribeHandlerForTest()

	e := echo.New()
	form := url.Values{"token": {"garbage"}}
	req := httptest.NewRequest(http.MethodPost, "/unsubscribe", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Submit(c); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "This link cannot be used") {
		t.Fatalf("expected the generic error page")
	}
}
