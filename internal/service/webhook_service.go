package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nightjar-records/pressroom/internal/domain"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/logger"
)

// InboundEvent is the provider's webhook envelope body.
type InboundEvent struct {
	Type      string           `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	Data      InboundEventData `json:"data"`
}

type InboundEventData struct {
	EmailID string   `json:"email_id"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
}

const eventPayloadLimit = 2000

// WebhookService applies delivery lifecycle events to the base: an immutable
// event log row, a status update on the matching send, and a suppression for
// bounces and complaints.
type WebhookService struct {
	base baseStore
}

func NewWebhookService(store baseStore) *WebhookService {
	return &WebhookService{base: store}
}

// Process handles one verified envelope. The event row is upserted by the
// provider's envelope id, so at-least-once redelivery leaves exactly one row
// and repeats the same (idempotent) side effects.
func (s *WebhookService) Process(ctx context.Context, envelopeID string, raw []byte, ev InboundEvent) error {
	if envelopeID == "" {
		return newValidationError("missing envelope id")
	}

	payload := string(raw)
	if len(payload) > eventPayloadLimit {
		payload = payload[:eventPayloadLimit]
	}

	fields := base.Fields{
		domain.FieldEventID:         envelopeID,
		domain.FieldEventType:       ev.Type,
		domain.FieldEventReceivedAt: nowUTC().Format(time.RFC3339),
		domain.FieldEventPayload:    payload,
		domain.FieldEventTo:         strings.Join(ev.Data.To, ", "),
		domain.FieldEventFrom:       ev.Data.From,
		domain.FieldEventSubject:    ev.Data.Subject,
	}
	if _, _, err := s.base.UpsertByUniqueField(ctx, domain.TableEvents, domain.FieldEventID, envelopeID, fields); err != nil {
		return fmt.Errorf("recording event %s: %w", envelopeID, err)
	}

	status, ok := deliveryStatusForEvent(ev.Type)
	if !ok {
		logger.Debugf("ignoring webhook event type %q (envelope %s)", ev.Type, envelopeID)
		return nil
	}

	if err := s.updateSendStatus(ctx, ev.Data.EmailID, status, ev.Type); err != nil {
		return err
	}

	if status == domain.SendBounced || status == domain.SendComplained {
		reason := domain.SuppressionBounced
		if status == domain.SendComplained {
			reason = domain.SuppressionComplaint
		}
		if len(ev.Data.To) > 0 {
			return s.recordSuppression(ctx, ev.Data.To[0], reason, "recorded from "+ev.Type+" webhook")
		}
	}

	return nil
}

func deliveryStatusForEvent(eventType string) (domain.SendStatus, bool) {
	switch eventType {
	case "email.sent":
		return domain.SendSent, true
	case "email.delivered":
		return domain.SendDelivered, true
	case "email.bounced":
		return domain.SendBounced, true
	case "email.complained":
		return domain.SendComplained, true
	case "email.failed":
		return domain.SendFailed, true
	}
	return "", false
}

func (s *WebhookService) updateSendStatus(ctx context.Context, providerID string, status domain.SendStatus, eventType string) error {
	if providerID == "" {
		return nil
	}

	recs, err := s.base.List(ctx, domain.TableSends, base.ListOptions{
		FilterByFormula: base.Eq(domain.FieldSendProviderID, providerID),
		PageSize:        1,
		MaxRecords:      1,
	})
	if err != nil {
		return fmt.Errorf("find send for provider id %s: %w", providerID, err)
	}
	if len(recs) == 0 {
		logger.Debugf("no send row matches provider id %s, skipping status update", providerID)
		return nil
	}

	patch := base.RecordPatch{ID: recs[0].ID, Fields: base.Fields{
		domain.FieldSendStatus: string(status),
		domain.FieldSendNotes:  eventType + " at " + nowUTC().Format(time.RFC3339),
	}}
	if err := s.base.PatchRecords(ctx, domain.TableSends, []base.RecordPatch{patch}); err != nil {
		return fmt.Errorf("update send %s to %s: %w", recs[0].ID, status, err)
	}
	return nil
}

// recordSuppression creates a suppression row for (email, reason) unless an
// equivalent row already exists; existence is the signal, not a flag.
func (s *WebhookService) recordSuppression(ctx context.Context, email string, reason domain.SuppressionReason, note string) error {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil
	}

	contacts, err := s.base.List(ctx, domain.TableContacts, base.ListOptions{
		FilterByFormula: base.Eq(domain.FieldContactEmail, email),
		PageSize:        1,
		MaxRecords:      1,
	})
	if err != nil {
		return fmt.Errorf("find contact for suppression %s: %w", email, err)
	}
	if len(contacts) == 0 {
		logger.Debugf("no contact matches %s, skipping suppression", email)
		return nil
	}

	existing, err := s.base.List(ctx, domain.TableSuppressions, base.ListOptions{
		FilterByFormula: base.And(
			base.Eq(domain.FieldSuppressionEmail, email),
			base.Eq(domain.FieldSuppressionReason, string(reason)),
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

	fields := base.Fields{
		domain.FieldSuppressionEmail:     email,
		domain.FieldSuppressionContact:   []string{contacts[0].ID},
		domain.FieldSuppressionReason:    string(reason),
		domain.FieldSuppressionStartDate: nowUTC().Format("2006-01-02"),
		domain.FieldSuppressionNotes:     note,
	}
	if _, err := s.base.CreateRecords(ctx, domain.TableSuppressions, []base.Fields{fields}); err != nil {
		return fmt.Errorf("create suppression for %s: %w", email, err)
	}

	logger.Infof("suppressed %s (reason=%s)", email, reason)
	return nil
}
