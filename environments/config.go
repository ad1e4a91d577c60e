package environments

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Base        BaseConfig
	Email       EmailConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Webhook     WebhookConfig
	Unsubscribe UnsubscribeConfig
	Auth        AuthConfig
	Campaign    CampaignConfig
}

type ServerConfig struct {
	Port string
}

// BaseConfig points at the hosted tabular database holding the Contacts,
// Campaigns, Sends, Events and Suppressions tables.
type BaseConfig struct {
	APIURL  string
	APIKey  string
	BaseID  string
	Timeout time.Duration
}

type EmailConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type WebhookConfig struct {
	SigningSecret string
}

type UnsubscribeConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type AuthConfig struct {
	InternalAPIKey string
	BasicUser      string
	BasicPass      string
}

// Sender is a named from/reply-to pair the composer can pick by key.
type Sender struct {
	From    string
	ReplyTo string
}

type CampaignConfig struct {
	Senders           map[string]Sender
	DefaultSenderKey  string
	BrandName         string
	LogoURL           string
	PublicBaseURL     string
	DefaultBatchLimit int
	UnsubscribeTTL    time.Duration
}

// Load builds the full configuration from the process environment. Required
// fields are checked here, at construction time, and the error names every
// missing one.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Base: BaseConfig{
			APIURL:  GetEnv("BASE_API_URL", "https://api.airtable.com/v0"),
			APIKey:  GetEnv("BASE_API_KEY", ""),
			BaseID:  GetEnv("BASE_ID", ""),
			Timeout: GetEnvAsDuration("BASE_TIMEOUT", 30*time.Second),
		},
		Email: EmailConfig{
			APIURL:  GetEnv("EMAIL_API_URL", "https://api.resend.com"),
			APIKey:  GetEnv("EMAIL_API_KEY", ""),
			Timeout: GetEnvAsDuration("EMAIL_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "pressroom"),
			Password: GetEnv("DB_PASSWORD", ""),
			DBName:   GetEnv("DB_NAME", "pressroom_ops"),
		},
		Cache: CacheConfig{
			Host:     GetEnv("CACHE_HOST", "localhost"),
			Port:     GetEnv("CACHE_PORT", "6379"),
			Password: GetEnv("CACHE_PASSWORD", ""),
			DB:       GetEnvAsInt("CACHE_DB", 0),
		},
		Webhook: WebhookConfig{
			SigningSecret: GetEnv("WEBHOOK_SIGNING_SECRET", ""),
		},
		Unsubscribe: UnsubscribeConfig{
			Secret:   GetEnv("UNSUBSCRIBE_SECRET", ""),
			TokenTTL: GetEnvAsDuration("UNSUBSCRIBE_TOKEN_TTL", 30*24*time.Hour),
		},
		Auth: AuthConfig{
			InternalAPIKey: GetEnv("PRESSROOM_API_KEY", ""),
			BasicUser:      GetEnv("PRESSROOM_BASIC_USER", ""),
			BasicPass:      GetEnv("PRESSROOM_BASIC_PASS", ""),
		},
		Campaign: CampaignConfig{
			Senders:           loadSenders(),
			DefaultSenderKey:  GetEnv("DEFAULT_SENDER_KEY", "press"),
			BrandName:         GetEnv("BRAND_NAME", "Nightjar Records"),
			LogoURL:           GetEnv("BRAND_LOGO_URL", ""),
			PublicBaseURL:     strings.TrimRight(GetEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			DefaultBatchLimit: GetEnvAsInt("DRAIN_BATCH_LIMIT", 50),
			UnsubscribeTTL:    GetEnvAsDuration("UNSUBSCRIBE_TOKEN_TTL", 30*24*time.Hour),
		},
	}

	var missing []string
	if cfg.Base.APIKey == "" {
		missing = append(missing, "BASE_API_KEY")
	}
	if cfg.Base.BaseID == "" {
		missing = append(missing, "BASE_ID")
	}
	if cfg.Email.APIKey == "" {
		missing = append(missing, "EMAIL_API_KEY")
	}
	if cfg.Webhook.SigningSecret == "" {
		missing = append(missing, "WEBHOOK_SIGNING_SECRET")
	}
	if cfg.Unsubscribe.Secret == "" {
		missing = append(missing, "UNSUBSCRIBE_SECRET")
	}
	if len(cfg.Campaign.Senders) == 0 {
		missing = append(missing, "SENDER_PRESS_FROM")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if _, ok := cfg.Campaign.Senders[cfg.Campaign.DefaultSenderKey]; !ok {
		return nil, fmt.Errorf("DEFAULT_SENDER_KEY %q has no SENDER_%s_FROM configured",
			cfg.Campaign.DefaultSenderKey, strings.ToUpper(cfg.Campaign.DefaultSenderKey))
	}

	return cfg, nil
}

// senderKeys are the well-known sender slots the composer can address.
var senderKeys = []string{"press", "events", "radio"}

func loadSenders() map[string]Sender {
	senders := make(map[string]Sender)
	for _, key := range senderKeys {
		prefix := "SENDER_" + strings.ToUpper(key)
		from := GetEnv(prefix+"_FROM", "")
		if from == "" {
			continue
		}
		senders[key] = Sender{
			From:    from,
			ReplyTo: GetEnv(prefix+"_REPLY_TO", ""),
		}
	}
	return senders
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
