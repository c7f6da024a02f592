package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
)

// Engine authenticates users and manages their sessions and remember
// entries. Obtain one from [Builder.Build]; it is immutable and safe for
// concurrent use.
type Engine struct {
	config      Config
	credentials CredentialStore
	sessions    SessionIssuer
	remember    RememberStore
	verifier    *password.Verifier
	metrics     *Metrics
	logger      *slog.Logger
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// MetricsSnapshot returns the current counter values. It is empty when
// metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil &&
		e.credentials != nil &&
		e.sessions != nil &&
		e.remember != nil &&
		e.verifier != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) warn(ctx context.Context, msg string, args ...any) {
	if ip := clientIPFromContext(ctx); ip != "" {
		args = append(args, "client_ip", ip)
	}
	e.logger.WarnContext(ctx, msg, args...)
}

func (e *Engine) debug(ctx context.Context, msg string, args ...any) {
	if ip := clientIPFromContext(ctx); ip != "" {
		args = append(args, "client_ip", ip)
	}
	e.logger.DebugContext(ctx, msg, args...)
}

func (e *Engine) flowMetrics() flows.Metrics {
	return flows.Metrics{
		LoginSuccess:           int(MetricLoginSuccess),
		LoginUserNotExist:      int(MetricLoginUserNotExist),
		LoginIncorrectPassword: int(MetricLoginIncorrectPassword),
		SessionCreated:         int(MetricSessionCreated),
		RememberIssued:         int(MetricRememberIssued),
		RememberWriteFailed:    int(MetricRememberWriteFailed),
		ReauthSuccess:          int(MetricReauthSuccess),
		ReauthFailure:          int(MetricReauthFailure),
	}
}

func flowErrors() flows.Errors {
	return flows.Errors{
		EngineNotReady:    ErrEngineNotReady,
		UserNotExist:      ErrUserNotExist,
		IncorrectPassword: ErrIncorrectPassword,
		TokenNotFound:     ErrTokenNotFound,
		StoreUnavailable:  ErrStoreUnavailable,
	}
}

func toFlowUser(r UserRecord) flows.UserRecord {
	return flows.UserRecord{
		UserID:       r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Salt:         r.Salt,
	}
}

func (e *Engine) findByUsername(ctx context.Context, username string) (flows.UserRecord, bool, error) {
	rec, found, err := e.credentials.FindByUsername(ctx, username)
	if err != nil || !found {
		return flows.UserRecord{}, false, err
	}
	return toFlowUser(rec), true, nil
}

func (e *Engine) findByID(ctx context.Context, id string) (flows.UserRecord, bool, error) {
	rec, found, err := e.credentials.FindByID(ctx, id)
	if err != nil || !found {
		return flows.UserRecord{}, false, err
	}
	return toFlowUser(rec), true, nil
}

func isRememberNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || errors.Is(err, stores.ErrRememberNotFound)
}

func isSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, session.ErrSessionNotFound)
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func toLoginResult(res *flows.Result) *LoginResult {
	return &LoginResult{
		Identity: Identity{
			UserID:   res.UserID,
			Username: res.Username,
		},
		Token:      res.Token,
		Remembered: res.Remembered,
	}
}
