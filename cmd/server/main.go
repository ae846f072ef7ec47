package main

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/storage"
	"finance-tracker/web"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env", zap.Error(err))
	}

	configPath := config.DefaultFile
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if err := logger.Init(cfg.Log.Env); err != nil {
		logger.Fatal("init logger", zap.Error(err))
	}
	defer logger.Sync()

	db, err := storage.NewDB(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.Error(err), zap.String("path", cfg.Storage.DBPath))
	}
	defer db.Close()

	h := handlers.NewHandlers(db, handlers.Options{
		SessionTTL:     cfg.Session.TTL,
		SecureCookie:   cfg.Server.SecureCookie,
		PasscodeHash:   cfg.Auth.PasscodeHash,
		CurrencySymbol: cfg.App.CurrencySymbol,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.MetricsMiddleware(setupRouter(h)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
		cancel()
	}()

	logger.Info("starting server",
		zap.String("port", cfg.Server.Port),
		zap.Bool("passcode", cfg.Auth.PasscodeHash != ""),
		zap.Duration("session_ttl", cfg.Session.TTL),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("server stopped")
}

func setupRouter(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", h.Healthz)

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)

	session := h.SessionMiddleware
	mux.Handle("GET /{$}", session(http.HandlerFunc(h.Index)))
	mux.Handle("POST /salary", session(http.HandlerFunc(h.SubmitSalary)))
	mux.Handle("POST /events", session(http.HandlerFunc(h.AddEvent)))
	mux.Handle("POST /expenses", session(http.HandlerFunc(h.AddExpense)))
	mux.Handle("GET /api/summary", session(http.HandlerFunc(h.SummaryJSON)))
	mux.Handle("POST /reset", session(http.HandlerFunc(h.Reset)))

	return mux
}
