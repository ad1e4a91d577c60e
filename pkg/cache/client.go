package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/pkg/logger"
)

// SentSendCache is what the composer's status view reads back: which sends
// went out recently, without re-querying the base.
type SentSendCache struct {
	ProviderID string    `json:"providerId"`
	Email      string    `json:"email"`
	SentAt     time.Time `json:"sentAt"`
}

type Client struct {
	client valkey.Client
}

const (
	sentSendKeyPrefix = "sent_send:"
	sentSendTTL       = 24 * time.Hour
)

func NewClient(cfg environments.CacheConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	logger.Infof("Connected to cache (via Valkey client)")

	return &Client{client: client}, nil
}

func sentSendKey(campaignID, sendID string) string {
	return fmt.Sprintf("%s%s:%s", sentSendKeyPrefix, campaignID, sendID)
}

func (c *Client) CacheSentSend(ctx context.Context, campaignID, sendID string, entry SentSendCache) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	key := sentSendKey(campaignID, sendID)
	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Ex(sentSendTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache sent send: %w", err)
	}

	logger.Debugf("Cached sent send %s for campaign %s", sendID, campaignID)
	return nil
}

// GetCampaignSentCache returns every cached sent send for one campaign,
// keyed by send id.
func (c *Client) GetCampaignSentCache(ctx context.Context, campaignID string) (map[string]SentSendCache, error) {
	pattern := sentSendKeyPrefix + campaignID + ":*"
	prefix := sentSendKeyPrefix + campaignID + ":"

	var keys []string
	var cursor uint64
	for {
		result := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		if result.Error() != nil {
			return nil, fmt.Errorf("failed to scan cache keys: %w", result.Error())
		}

		scanResult, err := result.AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan result: %w", err)
		}

		keys = append(keys, scanResult.Elements...)
		cursor = scanResult.Cursor

		if cursor == 0 {
			break
		}
	}

	out := make(map[string]SentSendCache)

	for _, key := range keys {
		getResult := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
		if getResult.Error() != nil {
			continue
		}

		data, err := getResult.ToString()
		if err != nil {
			continue
		}

		var entry SentSendCache
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}

		sendID := key[len(prefix):]
		out[sendID] = entry
	}

	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}
