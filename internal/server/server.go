// Package server exposes the ledger over JSON/HTTP.
//
// Endpoints:
//
//	POST /execute   body: ExecuteMsg, sender from the X-Sender header
//	POST /query     body: QueryMsg
//	GET  /healthz
//
// Every request to /execute and /query goes through the executor, so HTTP
// clients observe the same total order as every other caller.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/claimledger/internal/contract"
	"github.com/roach88/claimledger/internal/executor"
	"github.com/roach88/claimledger/internal/ledger"
)

// SenderHeader carries the caller's address on /execute.
const SenderHeader = "X-Sender"

// maxBodyBytes bounds request bodies; ledger messages are small.
const maxBodyBytes = 64 << 10

// Error codes for failures that are not ledger kinds.
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeMissingSender  = "MISSING_SENDER"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
)

// Ledger is the request surface the server needs.
// Implemented by *executor.Executor.
type Ledger interface {
	Submit(ctx context.Context, req executor.Request) (contract.Response, error)
	Query(ctx context.Context, msg ledger.QueryMsg) (json.RawMessage, error)
}

// Config configures a Server.
type Config struct {
	Ledger Ledger
	Logger *slog.Logger

	// RPS and Burst size the per-sender token bucket. RPS <= 0 disables
	// rate limiting.
	RPS   float64
	Burst int

	// LimiterIdleTTL is how long an idle sender's bucket is kept.
	// Default: 15 minutes.
	LimiterIdleTTL time.Duration
}

// Server is the HTTP transport.
type Server struct {
	cfg     Config
	mux     *http.ServeMux
	limiter *limiterStore
	logger  *slog.Logger
}

// New creates a Server and registers its routes.
func New(cfg Config) *Server {
	if cfg.LimiterIdleTTL <= 0 {
		cfg.LimiterIdleTTL = 15 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{cfg: cfg, mux: http.NewServeMux(), logger: logger}
	if cfg.RPS > 0 {
		s.limiter = newLimiterStore(cfg.RPS, cfg.Burst, cfg.LimiterIdleTTL)
	}

	s.mux.HandleFunc("GET /healthz", s.healthz)
	s.mux.HandleFunc("POST /execute", s.wrap(s.handleExecute))
	s.mux.HandleFunc("POST /query", s.wrap(s.handleQuery))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.limiter != nil {
		janitorCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.limiter.janitor(janitorCtx, 2*time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(rateKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next(w, r)
	}
}

// rateKey buckets by sender, trimmed the same way the handlers trim it,
// falling back to the client IP.
func rateKey(r *http.Request) string {
	if sender := strings.TrimSpace(r.Header.Get(SenderHeader)); sender != "" {
		return "sender:" + sender
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sender := strings.TrimSpace(r.Header.Get(SenderHeader))
	if sender == "" {
		writeError(w, http.StatusBadRequest, CodeMissingSender, "missing "+SenderHeader+" header", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidMessage, err.Error(), nil)
		return
	}
	msg, err := ledger.ParseExecuteMsg(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidMessage, err.Error(), nil)
		return
	}

	resp, err := s.cfg.Ledger.Submit(r.Context(), executor.Request{
		Sender:  ledger.Address(sender),
		Execute: &msg,
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidMessage, err.Error(), nil)
		return
	}
	msg, err := ledger.ParseQueryMsg(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidMessage, err.Error(), nil)
		return
	}

	data, err := s.cfg.Ledger.Query(r.Context(), msg)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// StatusFor maps a ledger error kind to an HTTP status.
func StatusFor(k ledger.Kind) int {
	switch k {
	case ledger.KindUnauthorized:
		return http.StatusForbidden
	case ledger.KindConfigInvalid:
		return http.StatusBadRequest
	case ledger.KindAlreadyClaimed, ledger.KindSupplyExhausted, ledger.KindVersionMismatch:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, executor.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error(), nil)
		return
	case errors.Is(err, ledger.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, CodeInvalidMessage, err.Error(), nil)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error(), nil)
		return
	}

	le := ledger.AsLedgerError(r.URL.Path, err)
	status := StatusFor(le.Kind)
	msg := le.Message
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", le.Error())
		msg = "internal storage error"
	}
	writeError(w, status, string(le.Kind), msg, le.Details)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message, Details: details}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
