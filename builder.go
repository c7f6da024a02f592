package authcore

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// [Builder.Build] once, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	credentials CredentialStore
	sessions    SessionIssuer
	remember    RememberStore
	logger      *slog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the default session issuer and
// remember store. Either a single-node or a cluster client is accepted.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the credential store. It is required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithSessionIssuer overrides the default Redis + JWT session issuer.
func (b *Builder) WithSessionIssuer(issuer SessionIssuer) *Builder {
	b.sessions = issuer
	return b
}

// WithRememberStore overrides the default Redis remember store.
func (b *Builder) WithRememberStore(store RememberStore) *Builder {
	b.remember = store
	return b
}

// WithLogger sets the structured logger. Without one the engine logs nothing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. A Builder can
// only be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	if b.redis == nil && (b.sessions == nil || b.remember == nil) {
		return nil, errors.New("redis client required")
	}

	verifier, err := password.NewVerifier(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}

	// -------- SESSION ISSUER --------
	sessions := b.sessions
	if sessions == nil {
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.Session.TTL,
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.PublicKey),
			Issuer:        cfg.JWT.Issuer,
			Audience:      cfg.JWT.Audience,
			Leeway:        cfg.JWT.Leeway,
		})
		if err != nil {
			return nil, err
		}
		sessions = session.NewIssuer(b.redis, cfg.Session.RedisPrefix, jm)
	}

	// -------- REMEMBER STORE --------
	remember := b.remember
	if remember == nil {
		remember = stores.NewRememberStore(b.redis, cfg.Remember.Prefix)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		credentials: b.credentials,
		sessions:    sessions,
		remember:    remember,
		verifier:    verifier,
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger,
	}

	b.built = true

	return engine, nil
}
