// Package bookmark signs and serializes submitted query data so queries can
// be shared as links and restored across sessions without trusting the
// client. Payloads are form-encoded values carrying an HMAC-SHA256 tag.
package bookmark

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrTampered is returned when the authentication tag does not match.
var ErrTampered = errors.New("bookmark: data was tampered with")

const tagSize = sha256.Size

// Encode serializes values and appends an HMAC tag keyed by secret.
func Encode(values url.Values, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("bookmark: secret is required")
	}
	payload := []byte(values.Encode())
	tag := sign(payload, secret)
	return base64.StdEncoding.EncodeToString(append(tag, payload...)), nil
}

// Decode verifies and deserializes a token produced by Encode. Tokens that
// traveled through a query string get their '+' runes restored and their
// base64 padding repaired before decoding.
func Decode(token string, secret []byte) (url.Values, error) {
	if len(secret) == 0 {
		return nil, errors.New("bookmark: secret is required")
	}
	repaired := strings.ReplaceAll(token, " ", "+")
	if rem := len(repaired) % 4; rem != 0 {
		repaired += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.StdEncoding.DecodeString(repaired)
	if err != nil {
		return nil, fmt.Errorf("bookmark: decode token: %w", err)
	}
	if len(raw) < tagSize {
		return nil, ErrTampered
	}
	tag, payload := raw[:tagSize], raw[tagSize:]
	if !hmac.Equal(tag, sign(payload, secret)) {
		return nil, ErrTampered
	}
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("bookmark: parse payload: %w", err)
	}
	return values, nil
}

// Hash derives the stable hex digest used to key stored queries.
func Hash(values url.Values, secret []byte) string {
	return hex.EncodeToString(sign([]byte(values.Encode()), secret))
}

func sign(payload, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
