package service

import (
	"context"
	"fmt"

	"github.com/nightjar-records/pressroom/internal/repository"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/cache"
	"github.com/nightjar-records/pressroom/pkg/mailer"
	"github.com/nightjar-records/pressroom/pkg/token"
)

// fakeBase scripts List responses as per-table FIFO queues and records every
// write, so tests can assert on the exact sequence of base operations.
type fakeBase struct {
	listQueues map[string][][]base.Record
	listErr    error

	listCalls   []listCall
	created     map[string][]base.Fields
	patched     map[string][]base.RecordPatch
	upserts     []upsertCall
	nextID      int
	createErr   error
	patchErr    error
	patchErrFor string // table name; patchErr applies only to it when set
}

type listCall struct {
	table   string
	formula string
}

type upsertCall struct {
	table  string
	field  string
	value  string
	fields base.Fields
}

func newFakeBase() *fakeBase {
	return &fakeBase{
		listQueues: make(map[string][][]base.Record),
		created:    make(map[string][]base.Fields),
		patched:    make(map[string][]base.RecordPatch),
	}
}

// queueList appends one scripted response for the next List call on table.
func (f *fakeBase) queueList(table string, records ...base.Record) {
	f.listQueues[table] = append(f.listQueues[table], records)
}

func (f *fakeBase) List(ctx context.Context, table string, opts base.ListOptions) ([]base.Record, error) {
	f.listCalls = append(f.listCalls, listCall{table: table, formula: opts.FilterByFormula.String()})
	if f.listErr != nil {
		return nil, f.listErr
	}

	queue := f.listQueues[table]
	if len(queue) == 0 {
		return nil, fmt.Errorf("unexpected List call on %s (no scripted response)", table)
	}
	f.listQueues[table] = queue[1:]
	return queue[0], nil
}

func (f *fakeBase) CreateRecords(ctx context.Context, table string, records []base.Fields) ([]base.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	out := make([]base.Record, 0, len(records))
	for _, fields := range records {
		f.nextID++
		f.created[table] = append(f.created[table], fields)
		out = append(out, base.Record{ID: fmt.Sprintf("rec%d", f.nextID), Fields: fields})
	}
	return out, nil
}

func (f *fakeBase) PatchRecords(ctx context.Context, table string, patches []base.RecordPatch) error {
	if f.patchErr != nil && (f.patchErrFor == "" || f.patchErrFor == table) {
		return f.patchErr
	}
	f.patched[table] = append(f.patched[table], patches...)
	return nil
}

func (f *fakeBase) UpsertByUniqueField(ctx context.Context, table, field, value string, fields base.Fields) (base.Record, bool, error) {
	f.upserts = append(f.upserts, upsertCall{table: table, field: field, value: value, fields: fields})
	return base.Record{ID: "recUpsert", Fields: fields}, true, nil
}

type fakeMailer struct {
	batches [][]mailer.Message
	keys    []string
	sendErr error
}

func (f *fakeMailer) SendBatch(ctx context.Context, msgs []mailer.Message, idempotencyKey string) ([]string, error) {
	f.batches = append(f.batches, msgs)
	f.keys = append(f.keys, idempotencyKey)
	if f.sendErr != nil {
		return nil, f.sendErr
	}

	ids := make([]string, len(msgs))
	for i := range msgs {
		ids[i] = fmt.Sprintf("msg_%d_%d", len(f.batches), i)
	}
	return ids, nil
}

type fakeRunRecorder struct {
	runs []repository.DrainRun
}

func (f *fakeRunRecorder) Record(ctx context.Context, run repository.DrainRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRecorder) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]repository.DrainRun, error) {
	var out []repository.DrainRun
	for _, run := range f.runs {
		if run.CampaignID == campaignID {
			out = append(out, run)
		}
	}
	return out, nil
}

type fakeSentCache struct {
	entries map[string]map[string]cache.SentSendCache
}

func newFakeSentCache() *fakeSentCache {
	return &fakeSentCache{entries: make(map[string]map[string]cache.SentSendCache)}
}

func (f *fakeSentCache) CacheSentSend(ctx context.Context, campaignID, sendID string, entry cache.SentSendCache) error {
	if f.entries[campaignID] == nil {
		f.entries[campaignID] = make(map[string]cache.SentSendCache)
	}
	f.entries[campaignID][sendID] = entry
	return nil
}

func (f *fakeSentCache) GetCampaignSentCache(ctx context.Context, campaignID string) (map[string]cache.SentSendCache, error) {
	return f.entries[campaignID], nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(p token.Payload) (string, error) {
	return "tok-" + p.SendID, nil
}
