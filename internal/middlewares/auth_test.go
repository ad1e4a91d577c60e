package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/environments"
)

func runAuth(t *testing.T, cfg environments.AuthConfig, setup func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/enqueue", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.String(http.StatusOK, "passed")
	}

	if err := InternalAuth(cfg)(next)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec
}

func TestInternalAuthAcceptsAPIKey(t *testing.T) {
	cfg := environments.AuthConfig{InternalAPIKey: "secret-key"}

	rec := runAuth(t, cfg, func(req *http.Request) {
		req.Header.Set(APIKeyHeader, "secret-key")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInternalAuthRejectsWrongAPIKey(t *testing.T) {
	cfg := environments.AuthConfig{InternalAPIKey: "secret-key"}

	rec := runAuth(t, cfg, func(req *http.Request) {
		req.Header.Set(APIKeyHeader, "wrong-key")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestInternalAuthRejectsMissingCredentials(t *testing.T) {
	cfg := environments.AuthConfig{InternalAPIKey: "secret-key"}

	rec := runAuth(t, cfg, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestInternalAuthAcceptsBasicAuth(t *testing.T) {
	cfg := environments.AuthConfig{BasicUser: "press", BasicPass: "room"}

	rec := runAuth(t, cfg, func(req *http.Request) {
		req.SetBasicAuth("press", "room")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInternalAuthRejectsWrongBasicAuth(t *testing.T) {
	cfg := environments.AuthConfig{BasicUser: "press", BasicPass: "room"}

	rec := runAuth(t, cfg, func(req *http.Request) {
		req.SetBasicAuth("press", "wrong")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderWWWAuthenticate) == "" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}
}

// TestInternalAuthFailsClosedWithoutConfig verifies no configured credentials
// means every request is rejected, not let through.
func TestInternalAuthFailsClosedWithoutConfig(t *testing.T) {
	rec := runAuth(t, environments.AuthConfig{}, func(req *http.Request) {
		req.Header.Set(APIKeyHeader, "anything")
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when no credentials are configured, got %d", rec.Code)
	}
}

func TestInternalAuthKeyOrBasicBothWork(t *testing.T) {
	cfg := environments.AuthConfig{
		InternalAPIKey: "secret-key",
		BasicUser:      "press",
		BasicPass:      "room",
	}

	rec := runAuth(t, cfg, func(req *http.Request) {
		req.Header.Set(APIKeyHeader, "secret-key")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via key, got %d", rec.Code)
	}

	rec = runAuth(t, cfg, func(req *http.Request) {
		req.SetBasicAuth("press", "room")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via basic auth, got %d", rec.Code)
	}
}
