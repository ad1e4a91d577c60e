package base

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/pkg/logger"
)

const (
	// The provider caps page size and write batch size.
	maxPageSize   = 100
	maxWriteBatch = 10
)

// Client is a thin wrapper over the tabular database's REST API: paged list
// with a filter formula, chunked create/patch, and search-then-write upsert.
type Client struct {
	httpClient *resty.Client
}

func NewClient(cfg environments.BaseConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/") + "/" + cfg.BaseID).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		// Up to 4 attempts on throttle/gateway failures. Resty's default
		// backoff honors a Retry-After header when the provider sends one,
		// otherwise it doubles from the base wait up to the cap.
		SetRetryCount(3).
		SetRetryWaitTime(400 * time.Millisecond).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			switch r.StatusCode() {
			case 429, 502, 503, 504:
				return true
			}
			return false
		})

	return &Client{httpClient: client}
}

type ListOptions struct {
	FilterByFormula Formula
	Fields          []string
	PageSize        int
	MaxRecords      int
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// List fetches every record matching opts, following the offset cursor until
// the provider stops returning one.
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var all []Record
	offset := ""

	for {
		q := url.Values{}
		if f := opts.FilterByFormula.String(); f != "" {
			q.Set("filterByFormula", f)
		}
		q.Set("pageSize", strconv.Itoa(pageSize))
		for _, field := range opts.Fields {
			q.Add("fields[]", field)
		}
		if opts.MaxRecords > 0 {
			q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		var page listResponse
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetQueryParamsFromValues(q).
			SetResult(&page).
			Get("/" + url.PathEscape(table))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		if resp.IsError() {
			return nil, newAPIError(resp)
		}

		all = append(all, page.Records...)

		if opts.MaxRecords > 0 && len(all) >= opts.MaxRecords {
			return all[:opts.MaxRecords], nil
		}
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

type writeRequest struct {
	Records []writeRecord `json:"records"`
}

type writeRecord struct {
	ID     string `json:"id,omitempty"`
	Fields Fields `json:"fields"`
}

type writeResponse struct {
	Records []Record `json:"records"`
}

// CreateRecords writes rows in provider-sized chunks and returns the created
// records in input order.
func (c *Client) CreateRecords(ctx context.Context, table string, records []Fields) ([]Record, error) {
	var created []Record

	for start := 0; start < len(records); start += maxWriteBatch {
		end := start + maxWriteBatch
		if end > len(records) {
			end = len(records)
		}

		body := writeRequest{}
		for _, fields := range records[start:end] {
			body.Records = append(body.Records, writeRecord{Fields: fields})
		}

		var result writeResponse
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&result).
			Post("/" + url.PathEscape(table))
		if err != nil {
			return created, fmt.Errorf("create in %s: %w", table, err)
		}
		if resp.IsError() {
			return created, newAPIError(resp)
		}

		created = append(created, result.Records...)
	}

	return created, nil
}

// PatchRecords applies partial updates in provider-sized chunks. Patches set
// absolute values, so a retried patch is idempotent.
func (c *Client) PatchRecords(ctx context.Context, table string, patches []RecordPatch) error {
	for start := 0; start < len(patches); start += maxWriteBatch {
		end := start + maxWriteBatch
		if end > len(patches) {
			end = len(patches)
		}

		body := writeRequest{}
		for _, p := range patches[start:end] {
			body.Records = append(body.Records, writeRecord{ID: p.ID, Fields: p.Fields})
		}

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetBody(body).
			Patch("/" + url.PathEscape(table))
		if err != nil {
			return fmt.Errorf("patch in %s: %w", table, err)
		}
		if resp.IsError() {
			return newAPIError(resp)
		}
	}

	return nil
}

// UpsertByUniqueField searches for a row whose field equals value and patches
// it, or creates one if none exists. Returns the row and whether it was
// created. Search-then-write is not transactional; two concurrent upserts for
// the same value can produce a duplicate row.
func (c *Client) UpsertByUniqueField(ctx context.Context, table, field, value string, fields Fields) (Record, bool, error) {
	existing, err := c.List(ctx, table, ListOptions{
		FilterByFormula: Eq(field, value),
		PageSize:        1,
		MaxRecords:      1,
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("upsert lookup in %s: %w", table, err)
	}

	if len(existing) > 0 {
		rec := existing[0]
		if err := c.PatchRecords(ctx, table, []RecordPatch{{ID: rec.ID, Fields: fields}}); err != nil {
			return Record{}, false, fmt.Errorf("upsert patch in %s: %w", table, err)
		}
		rec.Fields = fields
		return rec, false, nil
	}

	created, err := c.CreateRecords(ctx, table, []Fields{fields})
	if err != nil {
		return Record{}, false, fmt.Errorf("upsert create in %s: %w", table, err)
	}
	if len(created) != 1 {
		return Record{}, false, fmt.Errorf("upsert create in %s: expected 1 record, got %d", table, len(created))
	}

	return created[0], true, nil
}

func newAPIError(resp *resty.Response) *APIError {
	body := resp.String()
	if len(body) > 512 {
		body = body[:512]
	}
	logger.Warnf("base API error: status=%d body=%s", resp.StatusCode(), body)
	return &APIError{StatusCode: resp.StatusCode(), Body: body}
}
