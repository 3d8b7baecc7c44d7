package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ekaraca/hazirlik/internal/content"
	"github.com/ekaraca/hazirlik/internal/handler"
	"github.com/ekaraca/hazirlik/internal/i18n"
	"github.com/ekaraca/hazirlik/internal/progress"
	"github.com/ekaraca/hazirlik/internal/session"
	"github.com/ekaraca/hazirlik/internal/storage"
	"github.com/ekaraca/hazirlik/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hazirlik",
		Short: "Exam preparation server for TYT, AYT and LGS",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "hazirlik.db", "SQLite database path")
	f.String("llm-url", "https://generativelanguage.googleapis.com/v1beta/openai", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the generation endpoint")
	f.String("llm-model", "gemini-2.0-flash", "Generation model name")
	f.StringP("lang", "l", "tr", "Default response language (tr, en)")
	f.String("progress-backend", "sqlite", "Checkpoint backend (sqlite, redis)")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis checkpoint backend")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.String("minio-endpoint", "", "Object store endpoint for avatars (empty disables uploads)")
	f.String("minio-access-key", "", "Object store access key")
	f.String("minio-secret-key", "", "Object store secret key")
	f.String("minio-bucket", "hazirlik", "Object store bucket for avatars")
	f.Bool("minio-ssl", false, "Use TLS for the object store")
	f.StringSlice("cors-origins", []string{"http://localhost:5173"}, "Allowed CORS origins for the web client")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all result histories as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "hazirlik.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("HAZIRLIK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("hazirlik")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/hazirlik")
	v.AddConfigPath("/etc/hazirlik")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PurgeExpired(7 * 24 * time.Hour); err != nil {
		slog.Warn("maintenance purge failed", "error", err)
	}
	if n, err := db.UserCount(); err == nil {
		slog.Info("store ready", "path", v.GetString("db"), "users", n)
	}

	lang := v.GetString("lang")
	if err := i18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := content.NewClient(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err := llmClient.Ping(context.Background()); err != nil {
		// The offline bank covers question generation; chat and
		// evaluation degrade to advisories.
		slog.Warn("generation endpoint unreachable, serving substitute content",
			"url", v.GetString("llm-url"), "error", err)
	} else {
		slog.Info("generation endpoint OK",
			"url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	progressStore, closeProgress, err := buildProgressStore(v, db)
	if err != nil {
		return err
	}
	if closeProgress != nil {
		defer closeProgress()
	}

	var avatars *storage.AvatarStore
	if endpoint := v.GetString("minio-endpoint"); endpoint != "" {
		avatars, err = storage.NewAvatarStore(context.Background(), storage.Config{
			Endpoint:  endpoint,
			AccessKey: v.GetString("minio-access-key"),
			SecretKey: v.GetString("minio-secret-key"),
			Bucket:    v.GetString("minio-bucket"),
			UseSSL:    v.GetBool("minio-ssl"),
		})
		if err != nil {
			return fmt.Errorf("avatar store: %w", err)
		}
	}

	adapter := content.NewAdapter(llmClient)
	registry := session.NewRegistry(adapter, progressStore)

	h := handler.New(db, llmClient, registry, avatars, handler.Config{
		SecureCookies: v.GetBool("secure-cookies"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   v.GetStringSlice("cors-origins"),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"progress_backend", v.GetString("progress-backend"),
	)

	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
	// Stopwatch checkpoints are debounced; write the final state of every
	// live attempt before the process exits.
	registry.FlushAll()
	return nil
}

// buildProgressStore selects the checkpoint backend. The returned close
// function is nil for the sqlite backend, which shares the app database.
func buildProgressStore(v *viper.Viper, db *store.Store) (progress.Store, func() error, error) {
	switch backend := strings.ToLower(v.GetString("progress-backend")); backend {
	case "redis":
		rs, err := progress.NewRedisStore(
			v.GetString("redis-addr"),
			v.GetString("redis-password"),
			v.GetInt("redis-db"),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis checkpoint backend: %w", err)
		}
		return rs, rs.Close, nil
	case "sqlite":
		return progress.NewSQLiteStore(db), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown progress backend %q", backend)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	exports, err := db.ExportAllResults()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	data, err := json.MarshalIndent(exports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
