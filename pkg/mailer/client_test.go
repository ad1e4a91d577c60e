package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nightjar-records/pressroom/environments"
)

func newTestClient(serverURL string) *Client {
	return NewClient(environments.EmailConfig{
		APIURL:  serverURL,
		APIKey:  "re_test",
		Timeout: 5 * time.Second,
	})
}

func TestSendReturnsMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer re_test" {
			t.Errorf("unexpected auth header %q", got)
		}

		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(msg.To) != 1 || msg.To[0] != "maya@example.com" {
			t.Errorf("unexpected recipients %v", msg.To)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_123"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	id, err := client.Send(context.Background(), Message{
		From:    "Press <press@nightjar.example>",
		To:      []string{"maya@example.com"},
		Subject: "Hello",
		Text:    "Hi",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("expected id msg_123, got %q", id)
	}
}

// TestSendBatch verifies the idempotency key header and that ids come back
// one per message, in order.
func TestSendBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails/batch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "key-abc" {
			t.Errorf("expected Idempotency-Key key-abc, got %q", got)
		}

		var msgs []Message
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(msgs) != 2 {
			t.Errorf("expected 2 messages, got %d", len(msgs))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"msg_a"},{"id":"msg_b"}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	msgs := []Message{
		{From: "press@nightjar.example", To: []string{"a@x.com"}, Subject: "s"},
		{From: "press@nightjar.example", To: []string{"b@x.com"}, Subject: "s"},
	}

	ids, err := client.SendBatch(context.Background(), msgs, "key-abc")
	if err != nil {
		t.Fatalf("SendBatch returned error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "msg_a" || ids[1] != "msg_b" {
		t.Fatalf("expected [msg_a msg_b], got %v", ids)
	}
}

func TestSendBatchEmptyIsNoop(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1") // must not be contacted

	ids, err := client.SendBatch(context.Background(), nil, "key")
	if err != nil {
		t.Fatalf("SendBatch returned error: %v", err)
	}
	if ids != nil {
		t.Fatalf("expected nil ids, got %v", ids)
	}
}

// TestSendBatchIDCountMismatch verifies the client refuses a response whose
// id count does not match the messages submitted.
func TestSendBatchIDCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"msg_a"}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	msgs := []Message{
		{From: "press@nightjar.example", To: []string{"a@x.com"}, Subject: "s"},
		{From: "press@nightjar.example", To: []string{"b@x.com"}, Subject: "s"},
	}

	if _, err := client.SendBatch(context.Background(), msgs, "key"); err == nil {
		t.Fatalf("expected error on id count mismatch")
	}
}

// TestSendBatchRetriesOnThrottle verifies a 429 is retried under the same
// idempotency key.
func TestSendBatchRetriesOnThrottle(t *testing.T) {
	var keys []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		if len(keys) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message":"rate limited"}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"msg_a"}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	msgs := []Message{{From: "press@nightjar.example", To: []string{"a@x.com"}, Subject: "s"}}

	ids, err := client.SendBatch(context.Background(), msgs, "key-retry")
	if err != nil {
		t.Fatalf("SendBatch returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "msg_a" {
		t.Fatalf("expected [msg_a], got %v", ids)
	}
	if len(keys) != 2 || keys[0] != "key-retry" || keys[1] != "key-retry" {
		t.Fatalf("expected same idempotency key on both attempts, got %v", keys)
	}
}

// TestSendSurfacesAPIError verifies non-retryable provider failures come back
// as *APIError.
func TestSendSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"domain not verified"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Send(context.Background(), Message{
		From: "press@nightjar.example", To: []string{"a@x.com"}, Subject: "s",
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", apiErr.StatusCode)
	}
}
