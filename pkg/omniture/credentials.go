package omniture

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Default credential keys looked up by CredentialsFrom.
const (
	UsernameKey = "OMNITURE_USERNAME"
	SecretKey   = "OMNITURE_SECRET"
)

// Credentials is a web services username ("user:company") and shared secret.
type Credentials struct {
	Username string
	Secret   string
}

// Source resolves credential keys, typically from the environment.
type Source interface {
	Lookup(key string) (string, bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

type envSource struct {
	v *viper.Viper
}

// EnvSource returns a Source reading environment variables. Empty
// variables count as unset.
func EnvSource() Source {
	v := viper.New()
	v.AutomaticEnv()
	return &envSource{v: v}
}

func (s *envSource) Lookup(key string) (string, bool) {
	if !s.v.IsSet(key) {
		return "", false
	}
	return s.v.GetString(key), true
}

// Affix decorates key with an optional prefix and suffix, joined by
// underscores: Affix("PROD", "OMNITURE_SECRET", "") is "PROD_OMNITURE_SECRET".
func Affix(prefix, key, suffix string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{prefix, key, suffix} {
		if p = strings.Trim(p, "_"); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}

// CredentialsFrom reads the username and secret keys, decorated with prefix
// and suffix, from src.
func CredentialsFrom(src Source, prefix, suffix string) (Credentials, error) {
	userKey := Affix(prefix, UsernameKey, suffix)
	secretKey := Affix(prefix, SecretKey, suffix)

	username, ok := src.Lookup(userKey)
	if !ok {
		return Credentials{}, fmt.Errorf("%s: %w", userKey, ErrMissingCredentials)
	}
	secret, ok := src.Lookup(secretKey)
	if !ok {
		return Credentials{}, fmt.Errorf("%s: %w", secretKey, ErrMissingCredentials)
	}

	return Credentials{Username: username, Secret: secret}, nil
}
