// Package svixsig verifies the email provider's inbound webhook envelopes.
// The signed content is "id.timestamp.payload"; the signature header carries
// space-separated "v1,<base64 mac>" candidates.
package svixsig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const secretPrefix = "whsec_"

// Timestamps outside this window are rejected to bound replay.
const timestampTolerance = 5 * time.Minute

var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Verify checks the envelope signature and timestamp. Any failure returns
// ErrInvalidSignature; the caller must not process the body on error.
func Verify(secret, msgID, timestamp, sigHeader string, payload []byte, now time.Time) error {
	if msgID == "" || timestamp == "" || sigHeader == "" {
		return ErrInvalidSignature
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	drift := now.Sub(time.Unix(ts, 0))
	if drift > timestampTolerance || drift < -timestampTolerance {
		return ErrInvalidSignature
	}

	expected := mac(key, msgID, timestamp, payload)

	for _, candidate := range strings.Fields(sigHeader) {
		parts := strings.SplitN(candidate, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Sign produces a "v1,<base64 mac>" signature for the envelope. Used by tests
// and local tooling that replays provider events.
func Sign(secret, msgID, timestamp string, payload []byte) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return "v1," + base64.StdEncoding.EncodeToString(mac(key, msgID, timestamp, payload)), nil
}

func decodeSecret(secret string) ([]byte, error) {
	trimmed := strings.TrimPrefix(secret, secretPrefix)
	if trimmed == "" {
		return nil, ErrInvalidSignature
	}
	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	return key, nil
}

func mac(key []byte, msgID, timestamp string, payload []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msgID))
	h.Write([]byte("."))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write(payload)
	return h.Sum(nil)
}
