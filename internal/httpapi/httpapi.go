// Package httpapi maps the /user HTTP endpoints onto an authcore engine.
// Handlers only decode requests, call the engine and encode the JSON
// envelope; every decision stays in the engine.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 16

// Authenticator is the engine surface used by the handlers.
type Authenticator interface {
	Login(ctx context.Context, req authcore.LoginRequest) (*authcore.LoginResult, error)
	Reauth(ctx context.Context, rememberToken string) (*authcore.LoginResult, error)
	RememberExists(ctx context.Context, token string) (bool, error)
	IsActive(ctx context.Context, token string) (bool, error)
	SessionUser(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
}

// Envelope is the body of every response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// LoginData is the payload of a successful login or auto-login. When
// Remembered is set after an auto-login, Token replaces the remember token the
// client presented.
type LoginData struct {
	Token      string `json:"token"`
	ID         string `json:"id"`
	Username   string `json:"username"`
	Remembered bool   `json:"remembered,omitempty"`
}

// MeData is the payload of /user/me.
type MeData struct {
	UserID string `json:"user_id"`
}

// Handler serves the /user endpoints.
type Handler struct {
	auth   Authenticator
	logger *slog.Logger
	mux    *http.ServeMux
}

// New builds the handler. A nil logger discards output.
func New(auth Authenticator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{
		auth:   auth,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /user/login", h.login)
	h.mux.HandleFunc("GET /user/check-login", h.checkLogin)
	h.mux.HandleFunc("GET /user/check-remember", h.checkRemember)
	h.mux.HandleFunc("POST /user/auto-login", h.autoLogin)
	h.mux.HandleFunc("POST /user/logout", h.logout)
	h.mux.Handle("GET /user/me", middleware.GuardWithErrors(auth, h.writeError)(http.HandlerFunc(h.me)))

	return h
}

// ServeHTTP stamps a request id and the client IP on the request context,
// then dispatches to the route.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	ctx := logging.WithRequestID(r.Context(), requestID)
	ctx = authcore.WithClientIP(ctx, clientIP(r))
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, Envelope{Code: http.StatusBadRequest, Message: "invalid request body"})
		return
	}

	res, err := h.auth.Login(r.Context(), authcore.LoginRequest{
		Username: body.Username,
		Password: body.Password,
		Remember: body.Remember,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, LoginData{
		Token:      res.Token,
		ID:         res.UserID,
		Username:   res.Username,
		Remembered: res.Remembered,
	})
}

func (h *Handler) checkLogin(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		h.writeOK(w, false)
		return
	}

	active, err := h.auth.IsActive(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOK(w, active)
}

func (h *Handler) checkRemember(w http.ResponseWriter, r *http.Request) {
	token, ok := queryToken(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, Envelope{Code: http.StatusBadRequest, Message: "token is required"})
		return
	}

	exists, err := h.auth.RememberExists(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOK(w, exists)
}

func (h *Handler) autoLogin(w http.ResponseWriter, r *http.Request) {
	token, ok := queryToken(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, Envelope{Code: http.StatusBadRequest, Message: "token is required"})
		return
	}

	res, err := h.auth.Reauth(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, LoginData{
		Token:      res.Token,
		ID:         res.UserID,
		Username:   res.Username,
		Remembered: res.Remembered,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, Envelope{Code: http.StatusUnauthorized, Message: "unauthorized"})
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOK(w, nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	h.writeOK(w, MeData{UserID: p.UserID})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, authcore.ErrUserNotExist):
		return http.StatusNotFound, "user does not exist"
	case errors.Is(err, authcore.ErrIncorrectPassword):
		return http.StatusUnauthorized, "incorrect password"
	case errors.Is(err, authcore.ErrTokenNotFound):
		return http.StatusUnauthorized, "remember token not found"
	case errors.Is(err, authcore.ErrSessionNotFound):
		return http.StatusUnauthorized, "session not found"
	case errors.Is(err, authcore.ErrStoreUnavailable), errors.Is(err, authcore.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, Envelope{Code: status, Message: msg})
}

func (h *Handler) writeOK(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, Envelope{Code: http.StatusOK, Message: "ok", Data: data})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Warn("response encode failed", "error", err)
	}
}

func queryToken(r *http.Request) (string, bool) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	return token, token != ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
