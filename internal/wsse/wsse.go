// Package wsse builds the WS-Security UsernameToken header the reporting API
// authenticates every call with.
package wsse

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HeaderName is the header carrying the token.
const HeaderName = "X-WSSE"

// Token signs requests for one username/secret pair.
type Token struct {
	Username string
	Secret   string

	// Now and Nonce default to the wall clock and a nanosecond timestamp.
	Now   func() time.Time
	Nonce func() string
}

// New creates a Token using the wall clock.
func New(username, secret string) *Token {
	return &Token{Username: username, Secret: secret}
}

// Header returns a fresh header value. Each call uses a new nonce and
// creation time.
func (t *Token) Header() string {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	nonce := t.nonce()
	created := now().UTC().Format("2006-01-02T15:04:05Z")

	digest := sha1.Sum([]byte(nonce + created + t.Secret))

	fields := []struct{ key, value string }{
		{"Username", t.Username},
		{"PasswordDigest", base64.StdEncoding.EncodeToString(digest[:])},
		{"Nonce", base64.StdEncoding.EncodeToString([]byte(nonce))},
		{"Created", created},
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%q", f.key, f.value))
	}
	return "UsernameToken " + strings.Join(parts, ", ")
}

func (t *Token) nonce() string {
	if t.Nonce != nil {
		return t.Nonce()
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
