package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nightjar-records/pressroom/internal/domain"
	"github.com/nightjar-records/pressroom/internal/repository"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/cache"
	"github.com/nightjar-records/pressroom/pkg/logger"
	"github.com/nightjar-records/pressroom/pkg/mailer"
	"github.com/nightjar-records/pressroom/pkg/template"
	"github.com/nightjar-records/pressroom/pkg/token"
)

const (
	maxBatchLimit = 100

	pollAfterFullBatchMs    = 900
	pollAfterPartialBatchMs = 1400
	maxPollDelayMs          = 5000
)

type DrainParams struct {
	CampaignID string
	Limit      int
	Force      bool
}

type DrainResult struct {
	RunID           string                `json:"runId"`
	Sent            int                   `json:"sent"`
	Failed          int                   `json:"failed"`
	RemainingQueued int                   `json:"remainingQueued"`
	NextPollMs      int                   `json:"nextPollMs"`
	CampaignStatus  domain.CampaignStatus `json:"campaignStatus"`
}

// Drain performs one bounded batch step: claim up to Limit queued sends for
// the campaign, render and submit them as one batch call, and write delivery
// status back. The caller loops on NextPollMs until RemainingQueued is zero.
//
// The "Sending" status write is advisory only; two concurrent drains can both
// get past it. Rows that already carry a provider message id are skipped,
// which bounds (but does not eliminate) double-send risk at this scale.
func (s *CampaignService) Drain(ctx context.Context, p DrainParams) (*DrainResult, error) {
	if p.CampaignID == "" {
		return nil, newValidationError("campaignId is required")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultBatchLimit
	}
	if limit > maxBatchLimit {
		limit = maxBatchLimit
	}

	camp, err := s.loadCampaign(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(camp.Pitch) == "" {
		return nil, newValidationError("campaign has no pitch name; sends cannot be joined to it")
	}
	if camp.Status == domain.CampaignSending && !p.Force {
		return nil, ErrCampaignLocked
	}

	if err := s.patchCampaignStatus(ctx, camp.ID, domain.CampaignSending, false); err != nil {
		logger.Warnf("drain %s: could not mark campaign as sending: %v", camp.ID, err)
	}

	queued, err := s.queuedSends(ctx, camp.Pitch)
	if err != nil {
		return nil, err
	}

	runID := newRunID()

	// A previous partially-failed batch may have recorded provider ids on
	// rows still marked Queued; those are not safe to resend.
	candidates := make([]domain.Send, 0, limit)
	for _, send := range queued {
		if send.ProviderMessageID != "" {
			continue
		}
		candidates = append(candidates, send)
		if len(candidates) == limit {
			break
		}
	}

	if len(candidates) == 0 {
		remaining := len(queued)
		status := s.finishIfDrained(ctx, camp, remaining)
		result := &DrainResult{
			RunID:           runID,
			RemainingQueued: remaining,
			NextPollMs:      nextPollDelayMs(remaining, 0, limit),
			CampaignStatus:  status,
		}
		s.recordRun(ctx, runID, camp.ID, result, 0)
		return result, nil
	}

	valid, failedCount := s.failInvalidSends(ctx, candidates)
	if len(valid) == 0 {
		remaining := len(queued) - failedCount
		status := s.finishIfDrained(ctx, camp, remaining)
		result := &DrainResult{
			RunID:           runID,
			Failed:          failedCount,
			RemainingQueued: remaining,
			NextPollMs:      nextPollDelayMs(remaining, len(candidates), limit),
			CampaignStatus:  status,
		}
		s.recordRun(ctx, runID, camp.ID, result, len(candidates))
		return result, nil
	}

	contacts, err := s.contactsForSends(ctx, valid)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	msgs := make([]mailer.Message, 0, len(valid))
	sendIDs := make([]string, 0, len(valid))
	for _, send := range valid {
		msgs = append(msgs, s.buildMessage(send, contacts, camp, now))
		sendIDs = append(sendIDs, send.ID)
	}

	key := batchIdempotencyKey(camp.ID, sendIDs)
	providerIDs, err := s.mail.SendBatch(ctx, msgs, key)
	if err != nil {
		s.failSends(ctx, valid, "batch send failed: "+err.Error())
		result := &DrainResult{RunID: runID, Failed: failedCount + len(valid)}
		s.recordRun(ctx, runID, camp.ID, result, len(candidates))
		return nil, fmt.Errorf("batch send for campaign %s: %w", camp.ID, err)
	}

	patches := make([]base.RecordPatch, 0, len(valid))
	sentAt := now.Format(time.RFC3339)
	for i, send := range valid {
		patches = append(patches, base.RecordPatch{ID: send.ID, Fields: base.Fields{
			domain.FieldSendStatus:     string(domain.SendSent),
			domain.FieldSendProviderID: providerIDs[i],
			domain.FieldSendSentAt:     sentAt,
		}})
	}
	if err := s.base.PatchRecords(ctx, domain.TableSends, patches); err != nil {
		// The provider accepted the batch; failing to record that is a state
		// transition failure, not side-channel bookkeeping.
		return nil, fmt.Errorf("recording sent status for campaign %s: %w", camp.ID, err)
	}

	if s.cache != nil {
		for i, send := range valid {
			entry := cache.SentSendCache{ProviderID: providerIDs[i], Email: send.Email, SentAt: now}
			if err := s.cache.CacheSentSend(ctx, camp.ID, send.ID, entry); err != nil {
				logger.Warnf("drain %s: could not cache sent send %s: %v", camp.ID, send.ID, err)
			}
		}
	}

	remaining := s.remainingQueued(ctx, camp.Pitch, len(queued)-len(candidates))
	status := s.finishIfDrained(ctx, camp, remaining)

	result := &DrainResult{
		RunID:           runID,
		Sent:            len(valid),
		Failed:          failedCount,
		RemainingQueued: remaining,
		NextPollMs:      nextPollDelayMs(remaining, len(candidates), limit),
		CampaignStatus:  status,
	}
	s.recordRun(ctx, runID, camp.ID, result, len(candidates))

	logger.Infof("drain campaign=%s run=%s sent=%d failed=%d remaining=%d",
		camp.ID, runID, result.Sent, result.Failed, result.RemainingQueued)

	return result, nil
}

func (s *CampaignService) queuedSends(ctx context.Context, pitch string) ([]domain.Send, error) {
	recs, err := s.base.List(ctx, domain.TableSends, base.ListOptions{
		FilterByFormula: base.And(
			base.FindInJoined(domain.FieldSendCampaign, pitch),
			base.Eq(domain.FieldSendStatus, string(domain.SendQueued)),
		),
		Fields: []string{
			domain.FieldSendEmail, domain.FieldSendFrom, domain.FieldSendReplyTo,
			domain.FieldSendStatus, domain.FieldSendProviderID,
			domain.FieldSendContact, domain.FieldSendCampaign,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list queued sends: %w", err)
	}

	sends := make([]domain.Send, 0, len(recs))
	for _, rec := range recs {
		sends = append(sends, domain.SendFromRecord(rec))
	}
	return sends, nil
}

// failInvalidSends marks rows with broken addresses as Failed and returns the
// valid remainder; one bad row never aborts the batch.
func (s *CampaignService) failInvalidSends(ctx context.Context, candidates []domain.Send) ([]domain.Send, int) {
	valid := make([]domain.Send, 0, len(candidates))
	var patches []base.RecordPatch

	for _, send := range candidates {
		reason := ""
		switch {
		case !ValidEmail(NormalizeEmail(send.Email)):
			reason = "invalid recipient address: " + send.Email
		case send.From != "" && !validFromAddress(send.From):
			reason = "invalid from address: " + send.From
		case send.ReplyTo != "" && !validFromAddress(send.ReplyTo):
			reason = "invalid reply-to address: " + send.ReplyTo
		}

		if reason == "" {
			valid = append(valid, send)
			continue
		}

		patches = append(patches, base.RecordPatch{ID: send.ID, Fields: base.Fields{
			domain.FieldSendStatus: string(domain.SendFailed),
			domain.FieldSendNotes:  reason,
		}})
	}

	if len(patches) > 0 {
		if err := s.base.PatchRecords(ctx, domain.TableSends, patches); err != nil {
			logger.Warnf("could not mark %d invalid sends as failed: %v", len(patches), err)
		}
	}
	return valid, len(patches)
}

// validFromAddress accepts either a bare address or "Name <address>".
func validFromAddress(addr string) bool {
	if open := strings.LastIndexByte(addr, '<'); open >= 0 && strings.HasSuffix(addr, ">") {
		addr = addr[open+1 : len(addr)-1]
	}
	return ValidEmail(NormalizeEmail(addr))
}

func (s *CampaignService) contactsForSends(ctx context.Context, sends []domain.Send) (map[string]domain.Contact, error) {
	seen := make(map[string]bool)
	var parts []base.Formula
	for _, send := range sends {
		for _, id := range send.ContactIDs {
			if !seen[id] {
				seen[id] = true
				parts = append(parts, base.RecordIDEq(id))
			}
		}
	}
	if len(parts) == 0 {
		return map[string]domain.Contact{}, nil
	}

	recs, err := s.base.List(ctx, domain.TableContacts, base.ListOptions{
		FilterByFormula: base.Or(parts...),
	})
	if err != nil {
		return nil, fmt.Errorf("load contacts for batch: %w", err)
	}

	contacts := make(map[string]domain.Contact, len(recs))
	for _, rec := range recs {
		contacts[rec.ID] = domain.ContactFromRecord(rec)
	}
	return contacts, nil
}

func (s *CampaignService) buildMessage(
	send domain.Send,
	contacts map[string]domain.Contact,
	camp *domain.Campaign,
	now time.Time,
) mailer.Message {
	var contact domain.Contact
	if len(send.ContactIDs) > 0 {
		contact = contacts[send.ContactIDs[0]]
	}
	if contact.Email == "" {
		contact.Email = send.Email
	}

	vars := contactVars(contact, camp.Pitch)
	subject := template.Merge(camp.Subject, vars)
	text := template.Merge(camp.Body, vars)

	from := send.From
	if from == "" {
		from = s.cfg.Senders[s.cfg.DefaultSenderKey].From
	}

	html, err := template.RenderEmailHTML(text, template.EmailOptions{
		BrandName:      s.cfg.BrandName,
		LogoURL:        s.cfg.LogoURL,
		RecipientName:  vars["first_name"],
		UnsubscribeURL: s.unsubscribeURL(contact.ID, send, camp.ID, now),
	})
	if err != nil {
		logger.Warnf("could not render HTML for send %s, sending text only: %v", send.ID, err)
		html = ""
	}

	return mailer.Message{
		From:    from,
		To:      []string{NormalizeEmail(send.Email)},
		ReplyTo: send.ReplyTo,
		Subject: subject,
		Text:    text,
		HTML:    html,
		Tags: []mailer.Tag{
			{Name: "campaign", Value: camp.ID},
			{Name: "send", Value: send.ID},
		},
	}
}

func (s *CampaignService) unsubscribeURL(contactID string, send domain.Send, campaignID string, now time.Time) string {
	if s.signer == nil || s.cfg.PublicBaseURL == "" {
		return ""
	}

	tok, err := s.signer.Sign(token.Payload{
		Version:    1,
		ContactID:  contactID,
		Email:      NormalizeEmail(send.Email),
		ExpiresAt:  now.Add(s.cfg.UnsubscribeTTL).Unix(),
		SendID:     send.ID,
		CampaignID: campaignID,
	})
	if err != nil {
		logger.Warnf("could not sign unsubscribe token for send %s: %v", send.ID, err)
		return ""
	}
	return s.cfg.PublicBaseURL + "/unsubscribe?token=" + tok
}

func (s *CampaignService) failSends(ctx context.Context, sends []domain.Send, note string) {
	if len(note) > 500 {
		note = note[:500]
	}
	patches := make([]base.RecordPatch, 0, len(sends))
	for _, send := range sends {
		patches = append(patches, base.RecordPatch{ID: send.ID, Fields: base.Fields{
			domain.FieldSendStatus: string(domain.SendFailed),
			domain.FieldSendNotes:  note,
		}})
	}
	if err := s.base.PatchRecords(ctx, domain.TableSends, patches); err != nil {
		logger.Errorf("could not mark %d sends as failed: %v", len(patches), err)
	}
}

// remainingQueued re-counts queued rows from the base; on error it falls back
// to the local estimate rather than failing a drain that already sent.
func (s *CampaignService) remainingQueued(ctx context.Context, pitch string, estimate int) int {
	recs, err := s.queuedSends(ctx, pitch)
	if err != nil {
		logger.Warnf("could not recount queued sends, using estimate %d: %v", estimate, err)
		return estimate
	}
	return len(recs)
}

func (s *CampaignService) finishIfDrained(ctx context.Context, camp *domain.Campaign, remaining int) domain.CampaignStatus {
	if remaining > 0 {
		return domain.CampaignSending
	}
	if err := s.patchCampaignStatus(ctx, camp.ID, domain.CampaignComplete, true); err != nil {
		logger.Warnf("could not mark campaign %s complete: %v", camp.ID, err)
		return domain.CampaignSending
	}
	return domain.CampaignComplete
}

func (s *CampaignService) patchCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus, stampSentAt bool) error {
	fields := base.Fields{domain.FieldCampaignStatus: string(status)}
	if stampSentAt {
		fields[domain.FieldCampaignSentAt] = nowUTC().Format(time.RFC3339)
	}
	return s.base.PatchRecords(ctx, domain.TableCampaigns, []base.RecordPatch{{ID: id, Fields: fields}})
}

func (s *CampaignService) recordRun(ctx context.Context, runID, campaignID string, result *DrainResult, attempted int) {
	if s.runs == nil {
		return
	}
	err := s.runs.Record(ctx, repository.DrainRun{
		RunID:      runID,
		CampaignID: campaignID,
		Attempted:  attempted,
		Sent:       result.Sent,
		Failed:     result.Failed,
		Remaining:  result.RemainingQueued,
	})
	if err != nil {
		logger.Warnf("could not record drain run %s: %v", runID, err)
	}
}

// batchIdempotencyKey hashes the campaign id plus the sorted claimed row ids,
// so retrying the identical batch reuses the provider-side dedup window.
func batchIdempotencyKey(campaignID string, sendIDs []string) string {
	ids := append([]string(nil), sendIDs...)
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(campaignID + ":" + strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:])
}

func nextPollDelayMs(remaining, attempted, limit int) int {
	if remaining == 0 {
		return 0
	}
	delay := pollAfterPartialBatchMs
	if attempted == limit {
		delay = pollAfterFullBatchMs
	}
	if delay < 0 {
		return 0
	}
	if delay > maxPollDelayMs {
		return maxPollDelayMs
	}
	return delay
}

func newRunID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("run%d", nowUTC().UnixNano())
	}
	return hex.EncodeToString(buf)
}
