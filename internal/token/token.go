// Package token issues and verifies HMAC-signed bearer tokens shared by all
// services. Verification is local: every service holds the same secret, so no
// network hop is needed to authenticate a request.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue generates a signed token for the user.
func (m *Manager) Issue(userID, email string) (string, error) {
	expires := time.Now().Add(m.ttl).Unix()
	payload := fmt.Sprintf("%s:%s:%d", userID, email, expires)
	token := fmt.Sprintf("%s:%s", payload, m.sign(payload))
	return base64.StdEncoding.EncodeToString([]byte(token)), nil
}

// Verify validates the signature and expiry and returns the embedded claims.
func (m *Manager) Verify(token string) (*Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 {
		return nil, ErrInvalidToken
	}

	payload := strings.Join(parts[:3], ":")
	if !hmac.Equal([]byte(m.sign(payload)), []byte(parts[3])) {
		return nil, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if time.Unix(expires, 0).Before(time.Now()) {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    parts[0],
		Email:     parts[1],
		ExpiresAt: time.Unix(expires, 0),
	}, nil
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
