package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// Config holds the Argon2id cost parameters shared by every derivation of a
// [Verifier]. SaltLength only applies to [Verifier.NewSalt]; stored salts of any
// length are accepted by [Verifier.Verify].
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Verifier derives and checks salted Argon2id password hashes.
//
// A Verifier is immutable after construction and safe for concurrent use.
type Verifier struct {
	config Config
}

// NewVerifier validates cfg and returns a Verifier bound to it.
func NewVerifier(cfg Config) (*Verifier, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Verifier{config: cfg}, nil
}

// Derive returns the stored form of password mixed with salt.
func (v *Verifier) Derive(password, salt string) string {
	// Password and salt are used as raw bytes exactly as provided (no Unicode normalization).
	key := v.key(password, salt)
	return base64.RawStdEncoding.EncodeToString(key)
}

// Verify reports whether candidate, mixed with salt, reproduces storedHash.
//
// A mismatch and a stored hash that cannot be decoded both yield false. The
// derived key is compared in constant time.
func (v *Verifier) Verify(candidate, salt, storedHash string) bool {
	if v == nil {
		return false
	}

	expected, err := base64.RawStdEncoding.DecodeString(storedHash)
	if err != nil || len(expected) != int(v.config.KeyLength) {
		return false
	}

	computed := v.key(candidate, salt)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// NewSalt returns a fresh random salt of the configured length, base64 encoded.
func (v *Verifier) NewSalt() (string, error) {
	salt := make([]byte, v.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	return base64.RawStdEncoding.EncodeToString(salt), nil
}

func (v *Verifier) key(password, salt string) []byte {
	return argon2.IDKey(
		[]byte(password),
		[]byte(salt),
		v.config.Time,
		v.config.Memory,
		v.config.Parallelism,
		v.config.KeyLength,
	)
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}

	return nil
}
