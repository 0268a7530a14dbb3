// Command portal-authd serves the creator portal's authentication API:
// login, current-user lookup, and logout, with every other route guarded
// by the access-token gate.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	portalauth "github.com/infound/portal-auth"
	"github.com/infound/portal-auth/middleware"
	"github.com/infound/portal-auth/password"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "portal-authd.yaml", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting portal-authd",
		"version", version,
		"config", configPath,
		"addr", cfg.Server.Addr,
		"redis", cfg.Redis.Addr,
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return fmt.Errorf("initializing hasher: %w", err)
	}

	directory, err := newFileDirectory(cfg.Users.Path, hasher)
	if err != nil {
		return err
	}

	auditSink, closeAudit, err := openAuditSink(cfg.Audit)
	if err != nil {
		return err
	}
	defer closeAudit()

	engine, err := portalauth.New().
		WithConfig(engineConfig(cfg)).
		WithRedis(rdb).
		WithCreatorDirectory(directory).
		WithAuditSink(auditSink).
		Build()
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	// SIGHUP reloads the creator directory without restarting.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := directory.Reload(); err != nil {
				logger.Error("reloading users file", "error", err)
				continue
			}
			logger.Info("users file reloaded", "path", cfg.Users.Path)
		}
	}()
	defer signal.Stop(hup)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /account/login", loginHandler(engine, logger))
	mux.HandleFunc("GET /account/me", meHandler())
	mux.HandleFunc("POST /account/logout", logoutHandler(engine, cfg.Gate.Header, logger))
	mux.HandleFunc("GET /health", healthHandler(engine))

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: middleware.Gate(engine)(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", cfg.Server.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func engineConfig(cfg *fileConfig) portalauth.Config {
	ec := portalauth.DefaultConfig()
	ec.Token.Secret = []byte(cfg.Token.Secret)
	ec.Token.Issuer = cfg.Token.Issuer
	if cfg.Token.TTL > 0 {
		ec.Token.TTL = cfg.Token.TTL
	}
	if cfg.Session.Prefix != "" {
		ec.Session.RedisPrefix = cfg.Session.Prefix
	}
	if cfg.Session.MaxPerUser > 0 {
		ec.Session.MaxPerUser = cfg.Session.MaxPerUser
	}
	if cfg.Gate.Header != "" {
		ec.Gate.Header = cfg.Gate.Header
	}
	if len(cfg.Gate.AllowPaths) > 0 {
		ec.Gate.AllowPaths = cfg.Gate.AllowPaths
	}
	ec.Audit.Enabled = cfg.Audit.Enabled
	if cfg.Audit.BufferSize > 0 {
		ec.Audit.BufferSize = cfg.Audit.BufferSize
	}
	return ec
}

func openAuditSink(cfg auditConfig) (portalauth.AuditSink, func(), error) {
	if !cfg.Enabled {
		return portalauth.NoOpSink{}, func() {}, nil
	}
	if cfg.Path == "" {
		return portalauth.NewJSONWriterSink(os.Stdout), func() {}, nil
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit log: %w", err)
	}
	return portalauth.NewJSONWriterSink(f), func() { _ = f.Close() }, nil
}

func setupLogger(cfg loggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// loginRequest mirrors the portal client's login payload. The credential
// is the sample id the creator received out of band.
type loginRequest struct {
	SampleID string `json:"sampleId"`
	UserName string `json:"userName"`
}

func loginHandler(engine *portalauth.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed request body")
			return
		}

		ctx := portalauth.WithClientIP(r.Context(), r.RemoteAddr)

		result, err := engine.Login(ctx, req.UserName, req.SampleID)
		if err != nil {
			if errors.Is(err, portalauth.ErrStoreUnavailable) {
				logger.Error("login failed", "username", req.UserName, "error", err)
				writeDetail(w, http.StatusServiceUnavailable, "Session store unavailable")
				return
			}
			// Every rejection reads the same; the audit trail keeps the
			// real reason.
			writeDetail(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		writeSuccess(w, map[string]string{
			"jti":    result.SessionID,
			"header": result.Header,
			"token":  result.Token,
		})
	}
}

func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Unverified")
			return
		}
		writeSuccess(w, principal)
	}
}

func logoutHandler(engine *portalauth.Engine, header string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(header)
		if raw == "" {
			writeDetail(w, http.StatusBadRequest, "No AccessToken")
			return
		}

		ctx := portalauth.WithClientIP(r.Context(), r.RemoteAddr)
		if err := engine.Logout(ctx, raw); err != nil {
			if errors.Is(err, portalauth.ErrStoreUnavailable) {
				logger.Error("logout failed", "error", err)
				writeDetail(w, http.StatusServiceUnavailable, "Session store unavailable")
				return
			}
			writeDetail(w, http.StatusUnauthorized, "Invalid AccessToken")
			return
		}

		writeSuccess(w, nil)
	}
}

func healthHandler(engine *portalauth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := engine.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, apiResponse{
				Code: http.StatusServiceUnavailable,
				Msg:  "session store unavailable",
			})
			return
		}
		writeSuccess(w, map[string]string{"status": "ok"})
	}
}

// -----------------------------------------------------------------------------
// Response envelope
// -----------------------------------------------------------------------------

// apiResponse is the portal's uniform response envelope.
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, apiResponse{
		Code: http.StatusOK,
		Msg:  "success",
		Data: data,
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
