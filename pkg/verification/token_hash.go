package verification

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

var ErrHashSecretNotConfigured = errors.New("token hash secret not configured")

// Hasher produces keyed HMAC-SHA256 digests of refresh tokens.
type Hasher struct {
	secret []byte
}

func NewHasher(secret string) (*Hasher, error) {
	if secret == "" {
		return nil, ErrHashSecretNotConfigured
	}
	return &Hasher{secret: []byte(secret)}, nil
}

func (h *Hasher) HashToken(token string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(token))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Hasher) VerifyTokenHash(token, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(h.HashToken(token)), []byte(storedHash)) == 1
}
