// Package token issues and verifies signed opt-out links:
// base64url(JSON payload) "." base64url(HMAC-SHA256(payload)).
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const currentVersion = 1

// ErrInvalidToken is the only error verification ever returns; callers must
// not learn which check failed.
var ErrInvalidToken = errors.New("token is invalid")

// Payload is the signed token body.
type Payload struct {
	Version    int    `json:"v"`
	ContactID  string `json:"cid"`
	Email      string `json:"em"`
	ExpiresAt  int64  `json:"exp"`
	SendID     string `json:"sid,omitempty"`
	CampaignID string `json:"camp,omitempty"`
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign serializes the payload and appends its signature.
func (s *Signer) Sign(p Payload) (string, error) {
	if p.Version == 0 {
		p.Version = currentVersion
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	sig := base64.RawURLEncoding.EncodeToString(s.mac(payload))
	return encoded + "." + sig, nil
}

// Verify checks signature, shape, version and expiry, in that order, and
// collapses every failure into ErrInvalidToken.
func (s *Signer) Verify(tok string, now time.Time) (*Payload, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !hmac.Equal(sig, s.mac(payload)) {
		return nil, ErrInvalidToken
	}

	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, ErrInvalidToken
	}
	if p.Version != currentVersion {
		return nil, ErrInvalidToken
	}
	if p.Email == "" {
		return nil, ErrInvalidToken
	}
	if now.Unix() > p.ExpiresAt {
		return nil, ErrInvalidToken
	}

	return &p, nil
}

func (s *Signer) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}
