package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nightjar-records/pressroom/internal/domain"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/token"
)

func signedTestToken(t *testing.T, signer *token.Signer, email string) string {
	t.Helper()
	tok, err := signer.Sign(token.Payload{
		ContactID:  "recC1",
		Email:      email,
		ExpiresAt:  time.Now().Add(time.Hour).Unix(),
		SendID:     "recS1",
		CampaignID: "recCamp",
	})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	return tok
}

func TestConfirmCreatesSuppression(t *testing.T) {
	store := newFakeBase()
	store.queueList(domain.TableSuppressions)

	signer := token.NewSigner("unsubscribe-secret")
	svc := NewUnsubscribeService(store, signer)

	tok := signedTestToken(t, signer, "Maya@Example.com")

	if err := svc.Confirm(context.Background(), tok, "Mozilla/5.0"); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}

	rows := store.created[domain.TableSuppressions]
	if len(rows) != 1 {
		t.Fatalf("expected 1 suppression row, got %d", len(rows))
	}
	row := rows[0]
	if row[domain.FieldSuppressionEmail] != "maya@example.com" {
		t.Fatalf("expected normalized email, got %v", row[domain.FieldSuppressionEmail])
	}
	if row[domain.FieldSuppressionReason] != string(domain.SuppressionUnsubscribed) {
		t.Fatalf("unexpected reason %v", row[domain.FieldSuppressionReason])
	}
	links, _ := row[domain.FieldSuppressionContact].([]string)
	if len(links) != 1 || links[0] != "recC1" {
		t.Fatalf("expected contact link, got %v", row[domain.FieldSuppressionContact])
	}
	note, _ := row[domain.FieldSuppressionNotes].(string)
	if !strings.Contains(note, "send=recS1") || !strings.Contains(note, "campaign=recCamp") {
		t.Fatalf("expected send and campaign in the note, got %q", note)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	store := newFakeBase()
	store.queueList(domain.TableSuppressions,
		base.Record{ID: "recSup1", Fields: base.Fields{
			domain.FieldSuppressionEmail:  "maya@example.com",
			domain.FieldSuppressionReason: string(domain.SuppressionUnsubscribed),
		}})

	signer := token.NewSigner("unsubscribe-secret")
	svc := NewUnsubscribeService(store, signer)

	tok := signedTestToken(t, signer, "maya@example.com")

	if err := svc.Confirm(context.Background(), tok, ""); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if len(store.created[domain.TableSuppressions]) != 0 {
		t.Fatalf("expected no new suppression row when one exists")
	}
}

func TestConfirmRejectsInvalidToken(t *testing.T) {
	store := newFakeBase()

	signer := token.NewSigner("unsubscribe-secret")
	svc := NewUnsubscribeService(store, signer)

	for _, tok := range []string{
		"",
		"garbage",
		signedTestToken(t, token.NewSigner("a-different-secret"), "maya@example.com"),
	} {
		err := svc.Confirm(context.Background(), tok, "")
		if !errors.Is(err, token.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}

	if len(store.created[domain.TableSuppressions]) != 0 {
		t.Fatalf("expected no writes for invalid tokens")
	}
	if len(store.listCalls) != 0 {
		t.Fatalf("expected no base reads for invalid tokens")
	}
}

func TestConfirmRejectsExpiredToken(t *testing.T) {
	store := newFakeBase()

	signer := token.NewSigner("unsubscribe-secret")
	svc := NewUnsubscribeService(store, signer)

	tok, err := signer.Sign(token.Payload{
		Email:     "maya@example.com",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if err := svc.Confirm(context.Background(), tok, ""); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestLookupReturnsPayload(t *testing.T) {
	signer := token.NewSigner("unsubscribe-secret")
	svc := NewUnsubscribeService(newFakeBase(), signer)

	tok := signedTestToken(t, signer, "maya@example.com")

	payload, err := svc.Lookup(tok)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if payload.Email != "maya@example.com" {
		t.Fatalf("unexpected payload email %q", payload.Email)
	}
}
