package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/omniture/internal/stats"
	"github.com/wesleyorama2/omniture/pkg/omniture"
)

const defaultEndpoint = omniture.DefaultEndpoint

// connect creates an account from the resolved settings and authenticates
// it. Explicit credentials win over the environment.
func (a *app) connect(ctx context.Context, recorder *stats.Recorder) (*omniture.Account, error) {
	opts := []omniture.AccountOption{}
	if a.cfg.Endpoint != "" {
		opts = append(opts, omniture.WithEndpoint(a.cfg.Endpoint))
	}
	if a.cfg.Timeout > 0 {
		opts = append(opts, omniture.WithTimeout(a.cfg.Timeout.Std()))
	}
	if a.cfg.RateLimit > 0 {
		opts = append(opts, omniture.WithRateLimit(a.cfg.RateLimit))
	}
	if recorder != nil {
		opts = append(opts, omniture.WithLatencyRecorder(recorder))
	}

	account := omniture.NewAccount(opts...)
	logger := zerolog.Ctx(ctx)

	if a.cfg.Username != "" {
		logger.Debug().Str("endpoint", account.Endpoint()).Msg("Authenticating with explicit credentials")
		return account, account.Authenticate(ctx, omniture.Credentials{
			Username: a.cfg.Username,
			Secret:   a.cfg.Secret,
		})
	}

	logger.Debug().
		Str("endpoint", account.Endpoint()).
		Str("username_var", omniture.Affix(a.cfg.Prefix, omniture.UsernameKey, a.cfg.Suffix)).
		Msg("Authenticating from environment")
	return account, account.AuthenticateFrom(ctx, omniture.EnvSource(), a.cfg.Prefix, a.cfg.Suffix)
}
