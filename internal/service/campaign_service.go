package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/internal/domain"
	"github.com/nightjar-records/pressroom/internal/repository"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/cache"
	"github.com/nightjar-records/pressroom/pkg/logger"
	"github.com/nightjar-records/pressroom/pkg/mailer"
	"github.com/nightjar-records/pressroom/pkg/template"
	"github.com/nightjar-records/pressroom/pkg/token"
)

// Small internal interfaces so the services can be tested without the real
// base, provider, DB or cache behind them.
type baseStore interface {
	List(ctx context.Context, table string, opts base.ListOptions) ([]base.Record, error)
	CreateRecords(ctx context.Context, table string, records []base.Fields) ([]base.Record, error)
	PatchRecords(ctx context.Context, table string, patches []base.RecordPatch) error
	UpsertByUniqueField(ctx context.Context, table, field, value string, fields base.Fields) (base.Record, bool, error)
}

type batchSender interface {
	SendBatch(ctx context.Context, msgs []mailer.Message, idempotencyKey string) ([]string, error)
}

type runRecorder interface {
	Record(ctx context.Context, run repository.DrainRun) error
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]repository.DrainRun, error)
}

type sentSendCache interface {
	CacheSentSend(ctx context.Context, campaignID, sendID string, entry cache.SentSendCache) error
	GetCampaignSentCache(ctx context.Context, campaignID string) (map[string]cache.SentSendCache, error)
}

type linkSigner interface {
	Sign(p token.Payload) (string, error)
}

// CampaignService drives the compose → preview → enqueue → drain workflow.
// The base is the single source of truth; this service holds no state between
// calls.
type CampaignService struct {
	base   baseStore
	mail   batchSender
	signer linkSigner
	runs   runRecorder
	cache  sentSendCache
	cfg    environments.CampaignConfig
}

func NewCampaignService(
	store baseStore,
	mail batchSender,
	signer linkSigner,
	cfg environments.CampaignConfig,
) *CampaignService {
	return &CampaignService{
		base:   store,
		mail:   mail,
		signer: signer,
		cfg:    cfg,
	}
}

// SetRunRecorder enables drain-run audit rows; nil-safe to leave unset.
func (s *CampaignService) SetRunRecorder(runs runRecorder) {
	s.runs = runs
}

// SetSentCache enables the recently-sent cache; nil-safe to leave unset.
func (s *CampaignService) SetSentCache(c sentSendCache) {
	s.cache = c
}

const audienceSampleLimit = 10

type AudienceParams struct {
	Outlet string
	Region string
}

type AudienceResult struct {
	Size   int      `json:"size"`
	Sample []string `json:"sample"`
}

// Audience resolves the current audience for a filter and returns its size
// plus a bounded sample. The full address list never leaves this service.
func (s *CampaignService) Audience(ctx context.Context, p AudienceParams) (*AudienceResult, error) {
	contacts, err := s.audienceContacts(ctx, p.Outlet, p.Region)
	if err != nil {
		return nil, err
	}

	result := &AudienceResult{Size: len(contacts)}
	for _, contact := range contacts {
		if len(result.Sample) >= audienceSampleLimit {
			break
		}
		email := NormalizeEmail(contact.Email)
		if ValidEmail(email) {
			result.Sample = append(result.Sample, email)
		}
	}
	return result, nil
}

type EnqueueParams struct {
	Pitch      string
	Subject    string
	Body       string
	SenderKey  string
	Outlet     string
	Region     string
	CampaignID string
}

type EnqueueResult struct {
	CampaignID     string `json:"campaignId"`
	AudienceSize   int    `json:"audienceSize"`
	EnqueuedCount  int    `json:"enqueuedCount"`
	DedupedCount   int    `json:"dedupedCount"`
	SkippedInvalid int    `json:"skippedInvalid"`
}

// Enqueue resolves the audience, creates or reuses the campaign row, and
// creates one Send row per recipient not already enqueued for that campaign.
// Re-running with the same campaign id and audience enqueues nothing new.
func (s *CampaignService) Enqueue(ctx context.Context, p EnqueueParams) (*EnqueueResult, error) {
	if strings.TrimSpace(p.Subject) == "" {
		return nil, newValidationError("subject template is required")
	}
	if strings.TrimSpace(p.Body) == "" {
		return nil, newValidationError("body template is required")
	}

	sender, err := s.resolveSender(p.SenderKey)
	if err != nil {
		return nil, err
	}

	contacts, err := s.audienceContacts(ctx, p.Outlet, p.Region)
	if err != nil {
		return nil, err
	}

	camp, err := s.ensureCampaign(ctx, p)
	if err != nil {
		return nil, err
	}

	existing, err := s.sendEmailsForCampaign(ctx, camp.Pitch)
	if err != nil {
		return nil, err
	}

	result := &EnqueueResult{CampaignID: camp.ID, AudienceSize: len(contacts)}

	var rows []base.Fields
	seen := make(map[string]bool, len(contacts))
	for _, contact := range contacts {
		email := NormalizeEmail(contact.Email)
		if !ValidEmail(email) {
			result.SkippedInvalid++
			continue
		}
		if existing[email] || seen[email] {
			result.DedupedCount++
			continue
		}
		seen[email] = true

		fields := base.Fields{
			domain.FieldSendEmail:    email,
			domain.FieldSendFrom:     sender.From,
			domain.FieldSendStatus:   string(domain.SendQueued),
			domain.FieldSendCampaign: []string{camp.ID},
			domain.FieldSendContact:  []string{contact.ID},
		}
		if sender.ReplyTo != "" {
			fields[domain.FieldSendReplyTo] = sender.ReplyTo
		}
		rows = append(rows, fields)
	}

	if len(rows) > 0 {
		created, err := s.base.CreateRecords(ctx, domain.TableSends, rows)
		if err != nil {
			return nil, fmt.Errorf("enqueue sends for campaign %s: %w", camp.ID, err)
		}
		result.EnqueuedCount = len(created)
	}

	logger.Infof("enqueue campaign=%s audience=%d enqueued=%d deduped=%d invalid=%d",
		camp.ID, result.AudienceSize, result.EnqueuedCount, result.DedupedCount, result.SkippedInvalid)

	return result, nil
}

type PreviewParams struct {
	Subject   string
	Body      string
	ContactID string
}

type PreviewResult struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Preview merges the templates against one contact's fields (or placeholder
// values) and renders the full HTML email.
func (s *CampaignService) Preview(ctx context.Context, p PreviewParams) (*PreviewResult, error) {
	if strings.TrimSpace(p.Subject) == "" && strings.TrimSpace(p.Body) == "" {
		return nil, newValidationError("subject or body template is required")
	}

	vars := placeholderVars()
	if p.ContactID != "" {
		recs, err := s.base.List(ctx, domain.TableContacts, base.ListOptions{
			FilterByFormula: base.RecordIDEq(p.ContactID),
			PageSize:        1,
			MaxRecords:      1,
		})
		if err != nil {
			return nil, fmt.Errorf("load preview contact %s: %w", p.ContactID, err)
		}
		if len(recs) == 0 {
			return nil, ErrNotFound
		}
		vars = contactVars(domain.ContactFromRecord(recs[0]), "")
	}

	subject := template.Merge(p.Subject, vars)
	text := template.Merge(p.Body, vars)

	html, err := template.RenderEmailHTML(text, template.EmailOptions{
		BrandName:      s.cfg.BrandName,
		LogoURL:        s.cfg.LogoURL,
		RecipientName:  vars["first_name"],
		UnsubscribeURL: "#",
	})
	if err != nil {
		return nil, err
	}

	return &PreviewResult{Subject: subject, Text: text, HTML: html}, nil
}

// SentCache returns the recently-sent entries cached for a campaign.
func (s *CampaignService) SentCache(ctx context.Context, campaignID string) (map[string]cache.SentSendCache, error) {
	if s.cache == nil {
		return nil, newValidationError("sent cache is not configured")
	}
	return s.cache.GetCampaignSentCache(ctx, campaignID)
}

// Runs returns the drain-run audit rows for a campaign.
func (s *CampaignService) Runs(ctx context.Context, campaignID string, limit int) ([]repository.DrainRun, error) {
	if s.runs == nil {
		return nil, newValidationError("run audit store is not configured")
	}
	return s.runs.ListByCampaign(ctx, campaignID, limit)
}

func (s *CampaignService) resolveSender(key string) (environments.Sender, error) {
	if key == "" {
		key = s.cfg.DefaultSenderKey
	}
	sender, ok := s.cfg.Senders[key]
	if !ok {
		return environments.Sender{}, newValidationError(fmt.Sprintf("unknown sender key %q", key))
	}
	return sender, nil
}

func (s *CampaignService) audienceContacts(ctx context.Context, outlet, region string) ([]domain.Contact, error) {
	formula := base.Truthy(domain.FieldContactMailable)
	if outlet != "" {
		formula = base.And(formula, base.FindInJoined(domain.FieldContactOutlet, outlet))
	}
	if region != "" {
		formula = base.And(formula, base.Eq(domain.FieldContactRegion, region))
	}

	recs, err := s.base.List(ctx, domain.TableContacts, base.ListOptions{
		FilterByFormula: formula,
		Fields: []string{
			domain.FieldContactEmail, domain.FieldContactFirst, domain.FieldContactLast,
			domain.FieldContactFull, domain.FieldContactOutlet, domain.FieldContactRegion,
			domain.FieldContactMailable, domain.FieldContactHook,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}

	contacts := make([]domain.Contact, 0, len(recs))
	for _, rec := range recs {
		contacts = append(contacts, domain.ContactFromRecord(rec))
	}
	return contacts, nil
}

func (s *CampaignService) ensureCampaign(ctx context.Context, p EnqueueParams) (*domain.Campaign, error) {
	if p.CampaignID != "" {
		camp, err := s.loadCampaign(ctx, p.CampaignID)
		if err != nil {
			return nil, err
		}
		// Keep the stored templates in step with what the composer last
		// submitted; drain renders from the campaign row.
		patch := base.RecordPatch{ID: camp.ID, Fields: base.Fields{
			domain.FieldCampaignSubject: p.Subject,
			domain.FieldCampaignBody:    p.Body,
		}}
		if err := s.base.PatchRecords(ctx, domain.TableCampaigns, []base.RecordPatch{patch}); err != nil {
			return nil, fmt.Errorf("update campaign templates %s: %w", camp.ID, err)
		}
		camp.Subject = p.Subject
		camp.Body = p.Body
		return camp, nil
	}

	if strings.TrimSpace(p.Pitch) == "" {
		return nil, newValidationError("pitch is required when creating a campaign")
	}

	fields := base.Fields{
		domain.FieldCampaignPitch:   p.Pitch,
		domain.FieldCampaignSubject: p.Subject,
		domain.FieldCampaignBody:    p.Body,
		domain.FieldCampaignStatus:  string(domain.CampaignReady),
	}
	if key := audienceKey(p.Outlet, p.Region); key != "" {
		fields[domain.FieldCampaignAudience] = key
	}

	created, err := s.base.CreateRecords(ctx, domain.TableCampaigns, []base.Fields{fields})
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	if len(created) != 1 {
		return nil, fmt.Errorf("create campaign: expected 1 record, got %d", len(created))
	}

	camp := domain.CampaignFromRecord(created[0])
	// Some base views compute the primary field; fall back to what we sent.
	if camp.Pitch == "" {
		camp.Pitch = p.Pitch
	}
	return &camp, nil
}

func (s *CampaignService) loadCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	recs, err := s.base.List(ctx, domain.TableCampaigns, base.ListOptions{
		FilterByFormula: base.RecordIDEq(id),
		PageSize:        1,
		MaxRecords:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("load campaign %s: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	camp := domain.CampaignFromRecord(recs[0])
	return &camp, nil
}

// sendEmailsForCampaign returns the normalized recipient set already present
// as Send rows for the campaign, regardless of status.
func (s *CampaignService) sendEmailsForCampaign(ctx context.Context, pitch string) (map[string]bool, error) {
	if pitch == "" {
		return nil, newValidationError("campaign has no pitch name; sends cannot be joined to it")
	}

	recs, err := s.base.List(ctx, domain.TableSends, base.ListOptions{
		FilterByFormula: base.FindInJoined(domain.FieldSendCampaign, pitch),
		Fields:          []string{domain.FieldSendEmail},
	})
	if err != nil {
		return nil, fmt.Errorf("list existing sends: %w", err)
	}

	existing := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if email := NormalizeEmail(rec.String(domain.FieldSendEmail)); email != "" {
			existing[email] = true
		}
	}
	return existing, nil
}

func audienceKey(outlet, region string) string {
	parts := make([]string, 0, 2)
	if outlet != "" {
		parts = append(parts, "outlet="+outlet)
	}
	if region != "" {
		parts = append(parts, "region="+region)
	}
	return strings.Join(parts, ",")
}

func contactVars(contact domain.Contact, pitch string) map[string]string {
	first := contact.FirstName
	if first == "" && contact.FullName != "" {
		first = strings.Fields(contact.FullName)[0]
	}
	full := contact.FullName
	if full == "" {
		full = strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	}

	return map[string]string{
		"first_name": first,
		"last_name":  contact.LastName,
		"full_name":  full,
		"email":      NormalizeEmail(contact.Email),
		"outlet":     strings.Join(contact.Outlets, ", "),
		"hook":       contact.Hook,
		"pitch":      pitch,
	}
}

func placeholderVars() map[string]string {
	return map[string]string{
		"first_name": "Alex",
		"last_name":  "Reyes",
		"full_name":  "Alex Reyes",
		"email":      "alex@example.com",
		"outlet":     "The Quietus",
		"hook":       "loved the last record",
		"pitch":      "New single",
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
