package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/pkg/logger"
)

// Message is one outbound email in the provider's wire shape.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
	Tags    []Tag    `json:"tags,omitempty"`
}

type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// APIError is a non-retryable (or retries-exhausted) response from the email
// provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("email API returned %d: %s", e.StatusCode, e.Body)
}

// Client wraps the transactional email provider: single send and batch send
// with an idempotency key.
type Client struct {
	httpClient *resty.Client
}

func NewClient(cfg environments.EmailConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		// Rate-limited sends are retried up to 3 attempts; the idempotency
		// key on batch sends makes the retry safe.
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r != nil && r.StatusCode() == 429
		})

	return &Client{httpClient: client}
}

type sendResponse struct {
	ID string `json:"id"`
}

type batchResponse struct {
	Data []sendResponse `json:"data"`
}

// Send submits one message and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	var result sendResponse

	started := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&result).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	if resp.IsError() {
		return "", newAPIError(resp)
	}

	logger.Infof("email send to %d recipient(s) completed in %v (status: %d)",
		len(msg.To), time.Since(started), resp.StatusCode())

	if result.ID == "" {
		return "", fmt.Errorf("send email: provider returned no message id")
	}
	return result.ID, nil
}

// SendBatch submits all messages as one call under the given idempotency key
// and returns one provider message id per input message, in order. Repeating
// the same key with the same message set must not create duplicate sends.
func (c *Client) SendBatch(ctx context.Context, msgs []Message, idempotencyKey string) ([]string, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	var result batchResponse

	started := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", idempotencyKey).
		SetBody(msgs).
		SetResult(&result).
		Post("/emails/batch")
	if err != nil {
		return nil, fmt.Errorf("batch send: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}

	logger.Infof("batch send of %d message(s) completed in %v (status: %d)",
		len(msgs), time.Since(started), resp.StatusCode())

	if len(result.Data) != len(msgs) {
		return nil, fmt.Errorf("batch send: provider returned %d ids for %d messages",
			len(result.Data), len(msgs))
	}

	ids := make([]string, len(result.Data))
	for i, item := range result.Data {
		ids[i] = item.ID
	}
	return ids, nil
}

func newAPIError(resp *resty.Response) *APIError {
	body := resp.String()
	if len(body) > 512 {
		body = body[:512]
	}
	logger.Warnf("email API error: status=%d body=%s", resp.StatusCode(), body)
	return &APIError{StatusCode: resp.StatusCode(), Body: body}
}
