package authcore

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/password"
)

// Config holds every tunable of an [Engine]. Obtain one with [DefaultConfig],
// adjust it, and pass it to [Builder.WithConfig]. The builder keeps its own
// copy.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Remember RememberConfig
	Password PasswordConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the signing of session tokens. The token lifetime is
// [SessionConfig.TTL].
type JWTConfig struct {
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis-backed primary session.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

/*
====================================
REMEMBER CONFIG
====================================
*/

// RememberConfig configures remember-me entries.
//
// FailOpen controls what happens when the remember entry cannot be written
// after a successful password check: true keeps the session and reports
// Remembered=false, false revokes the session and fails the login.
type RememberConfig struct {
	Prefix   string
	TTL      time.Duration
	FailOpen bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id parameters used to verify passwords.
// They must match the parameters the stored hashes were derived with.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters exposed by
// [Engine.MetricsSnapshot].
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the defaults: 24h sessions, 7 day fail-open remember
// entries and the password package's Argon2id parameters. Signing keys are
// left empty and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			SigningMethod: "ed25519",
		},
		Session: SessionConfig{
			RedisPrefix: "as",
			TTL:         24 * time.Hour,
		},
		Remember: RememberConfig{
			Prefix:   stores.DefaultRememberPrefix,
			TTL:      7 * 24 * time.Hour,
			FailOpen: true,
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for values the engine cannot run with.
// Argon2id parameter floors are enforced by password.NewVerifier at build time.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.JWT.Audience != "" && strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Remember
	if c.Remember.TTL <= 0 {
		return errors.New("Remember TTL must be > 0")
	}
	if strings.TrimSpace(c.Remember.Prefix) == "" {
		return errors.New("Remember Prefix must not be empty")
	}
	if c.Remember.Prefix == c.Session.RedisPrefix || c.Remember.Prefix == c.Session.RedisPrefix+":" {
		return errors.New("Remember Prefix must not overlap Session RedisPrefix")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
