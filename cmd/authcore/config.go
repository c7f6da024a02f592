package main

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/authcore"
)

// seedUser is a development account loaded into the in-memory store when no
// database is configured.
type seedUser struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// serverConfig is the merged view of the config file and command-line flags.
// Flags win over the file; the file wins over flag defaults.
type serverConfig struct {
	Listen        string `koanf:"listen"`
	MetricsListen string `koanf:"metrics_listen"`
	RedisAddr     string `koanf:"redis_addr"`
	DatabaseURL   string `koanf:"database_url"`
	LogFormat     string `koanf:"log_format"`
	LogLevel      string `koanf:"log_level"`

	OTelMetrics         bool          `koanf:"otel_metrics"`
	OTelMetricsInterval time.Duration `koanf:"otel_metrics_interval"`

	JWTSigningMethod  string        `koanf:"jwt_signing_method"`
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTPrivateKeyFile string        `koanf:"jwt_private_key_file"`
	JWTPublicKeyFile  string        `koanf:"jwt_public_key_file"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	JWTAudience       string        `koanf:"jwt_audience"`
	JWTLeeway         time.Duration `koanf:"jwt_leeway"`

	SessionPrefix    string        `koanf:"session_prefix"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	RememberPrefix   string        `koanf:"remember_prefix"`
	RememberTTL      time.Duration `koanf:"remember_ttl"`
	RememberFailOpen bool          `koanf:"remember_fail_open"`

	PasswordMemory      uint32 `koanf:"password_memory"`
	PasswordTime        uint32 `koanf:"password_time"`
	PasswordParallelism uint8  `koanf:"password_parallelism"`

	SeedUsers []seedUser `koanf:"seed_users"`
}

// addEngineFlags registers the flags shared by commands that need engine
// settings. Defaults mirror authcore.DefaultConfig.
func addEngineFlags(fs *pflag.FlagSet) {
	def := authcore.DefaultConfig()

	fs.String("jwt-signing-method", def.JWT.SigningMethod, "session token signing method (ed25519 or hs256)")
	fs.String("jwt-secret", "", "hs256 signing secret")
	fs.String("jwt-private-key-file", "", "ed25519 private key (PEM)")
	fs.String("jwt-public-key-file", "", "ed25519 public key (PEM)")
	fs.String("jwt-issuer", "", "token issuer claim")
	fs.String("jwt-audience", "", "token audience claim")
	fs.Duration("jwt-leeway", def.JWT.Leeway, "clock skew tolerance")

	fs.String("session-prefix", def.Session.RedisPrefix, "redis key prefix for sessions")
	fs.Duration("session-ttl", def.Session.TTL, "session lifetime")
	fs.String("remember-prefix", def.Remember.Prefix, "redis key prefix for remember-me entries")
	fs.Duration("remember-ttl", def.Remember.TTL, "remember-me lifetime")
	fs.Bool("remember-fail-open", def.Remember.FailOpen, "keep the session when the remember entry cannot be written")

	fs.Uint32("password-memory", def.Password.Memory, "argon2id memory in KB")
	fs.Uint32("password-time", def.Password.Time, "argon2id iterations")
	fs.Uint8("password-parallelism", def.Password.Parallelism, "argon2id parallelism")
}

// loadConfig merges the config file (when path is set) with the command's
// flags.
func loadConfig(cmd *cobra.Command, path string) (serverConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return serverConfig{}, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrapf(err, "read config file")
		}
	}

	fs := cmd.Flags()
	provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return serverConfig{}, oops.Code("CONFIG_INVALID").Wrapf(err, "read flags")
	}

	var cfg serverConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return serverConfig{}, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}
	return cfg, nil
}

// engineConfig converts cfg into an authcore.Config and validates it.
func (c serverConfig) engineConfig() (authcore.Config, error) {
	out := authcore.DefaultConfig()

	if c.JWTSigningMethod != "" {
		out.JWT.SigningMethod = c.JWTSigningMethod
	}
	out.JWT.Issuer = c.JWTIssuer
	out.JWT.Audience = c.JWTAudience
	out.JWT.Leeway = c.JWTLeeway

	switch out.JWT.SigningMethod {
	case "hs256":
		out.JWT.PrivateKey = []byte(c.JWTSecret)
	case "ed25519":
		priv, err := readKeyFile(c.JWTPrivateKeyFile)
		if err != nil {
			return authcore.Config{}, err
		}
		pub, err := readKeyFile(c.JWTPublicKeyFile)
		if err != nil {
			return authcore.Config{}, err
		}
		out.JWT.PrivateKey = priv
		out.JWT.PublicKey = pub
	}

	if c.SessionPrefix != "" {
		out.Session.RedisPrefix = c.SessionPrefix
	}
	if c.SessionTTL > 0 {
		out.Session.TTL = c.SessionTTL
	}
	if c.RememberPrefix != "" {
		out.Remember.Prefix = c.RememberPrefix
	}
	if c.RememberTTL > 0 {
		out.Remember.TTL = c.RememberTTL
	}
	out.Remember.FailOpen = c.RememberFailOpen

	out.Password = c.passwordSettings()

	out.Metrics.Enabled = true
	out.Metrics.EnableLatencyHistograms = true

	if err := out.Validate(); err != nil {
		return authcore.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return out, nil
}

// passwordSettings returns the Argon2id parameters, falling back to the
// engine defaults for unset values.
func (c serverConfig) passwordSettings() authcore.PasswordConfig {
	out := authcore.DefaultConfig().Password
	if c.PasswordMemory > 0 {
		out.Memory = c.PasswordMemory
	}
	if c.PasswordTime > 0 {
		out.Time = c.PasswordTime
	}
	if c.PasswordParallelism > 0 {
		out.Parallelism = c.PasswordParallelism
	}
	return out
}

func readKeyFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "read key file")
	}
	return data, nil
}
