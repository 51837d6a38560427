package server

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const csrfNonceSize = 16

// issueCSRFToken mints a token bound to the session id: a random nonce plus
// an HMAC over nonce and session, so tokens cannot travel across sessions.
func issueCSRFToken(sessionID string, secret []byte) (string, error) {
	nonce := make([]byte, csrfNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	tag := csrfTag(nonce, sessionID, secret)
	return base64.RawURLEncoding.EncodeToString(append(nonce, tag...)), nil
}

// verifyCSRFToken checks a submitted token against the session id.
func verifyCSRFToken(token, sessionID string, secret []byte) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != csrfNonceSize+sha256.Size {
		return false
	}
	nonce, tag := raw[:csrfNonceSize], raw[csrfNonceSize:]
	return hmac.Equal(tag, csrfTag(nonce, sessionID, secret))
}

func csrfTag(nonce []byte, sessionID string, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(nonce)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}
