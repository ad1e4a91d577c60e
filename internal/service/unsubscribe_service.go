package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nightjar-records/pressroom/internal/domain"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/logger"
	"github.com/nightjar-records/pressroom/pkg/token"
)

type tokenVerifier interface {
	Verify(tok string, now time.Time) (*token.Payload, error)
}

const unsubscribeNoteLimit = 500

// UnsubscribeService turns a signed opt-out token into an idempotent
// suppression row. Every failure path is collapsed into token.ErrInvalidToken
// so the public page can stay generic.
type UnsubscribeService struct {
	base     baseStore
	verifier tokenVerifier
}

func NewUnsubscribeService(store baseStore, verifier tokenVerifier) *UnsubscribeService {
	return &UnsubscribeService{base: store, verifier: verifier}
}

// Lookup verifies the token for the confirmation page without side effects.
func (s *UnsubscribeService) Lookup(tok string) (*token.Payload, error) {
	return s.verifier.Verify(tok, time.Now())
}

// Confirm verifies the token and records an "Unsubscribed" suppression for
// the contact unless one already exists.
func (s *UnsubscribeService) Confirm(ctx context.Context, tok, userAgent string) error {
	payload, err := s.verifier.Verify(tok, time.Now())
	if err != nil {
		return err
	}

	email := NormalizeEmail(payload.Email)
	if !ValidEmail(email) {
		return token.ErrInvalidToken
	}

	existing, err := s.base.List(ctx, domain.TableSuppressions, base.ListOptions{
		FilterByFormula: base.And(
			base.Eq(domain.FieldSuppressionEmail, email),
			base.Eq(domain.FieldSuppressionReason, string(domain.SuppressionUnsubscribed)),
		),
		PageSize:   1,
		MaxRecords: 1,
	})
	if err != nil {
		return fmt.Errorf("check existing suppression for %s: %w", email, err)
	}
	if len(existing) > 0 {
		return nil
	}

	note := fmt.Sprintf("self-service unsubscribe (send=%s campaign=%s ua=%s)",
		payload.SendID, payload.CampaignID, userAgent)
	if len(note) > unsubscribeNoteLimit {
		note = note[:unsubscribeNoteLimit]
	}

	fields := base.Fields{
		domain.FieldSuppressionEmail:     email,
		domain.FieldSuppressionReason:    string(domain.SuppressionUnsubscribed),
		domain.FieldSuppressionStartDate: nowUTC().Format("2006-01-02"),
		domain.FieldSuppressionNotes:     note,
	}
	if payload.ContactID != "" {
		fields[domain.FieldSuppressionContact] = []string{payload.ContactID}
	}

	if _, err := s.base.CreateRecords(ctx, domain.TableSuppressions, []base.Fields{fields}); err != nil {
		return fmt.Errorf("create unsubscribe suppression for %s: %w", email, err)
	}

	logger.Infof("unsubscribed %s", email)
	return nil
}
