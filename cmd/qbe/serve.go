package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-qbe/pkg/server"
)

var (
	flagAddr     string
	flagBasePath string
	flagSecret   string
	flagTitle    string
	flagLimit    int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Query-by-Example admin screen",
	Long: `Serve mounts the QBE pages on an HTTP server and blocks until
interrupted. The signing secret comes from --secret or the QBE_SECRET
environment variable; without one a random per-process secret is used and
bookmarks stop working across restarts.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&flagBasePath, "base-path", "/qbe", "URL prefix the screens mount under")
	serveCmd.Flags().StringVar(&flagSecret, "secret", "", "signing secret for bookmarks and CSRF tokens")
	serveCmd.Flags().StringVar(&flagTitle, "title", "Query by Example", "page title")
	serveCmd.Flags().IntVar(&flagLimit, "limit", 100, "default result limit")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	reg, err := loadModels(ctx, db)
	if err != nil {
		return err
	}

	secret, err := resolveSecret(logger)
	if err != nil {
		return err
	}

	component, err := server.New(
		server.WithRegistry(reg),
		server.WithDB(db),
		server.WithSecret(secret),
		server.WithLogger(logger),
		server.WithTitle(flagTitle),
		server.WithDefaultLimit(flagLimit),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	formURL, err := component.RegisterRoutes(mux, flagBasePath)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              flagAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", flagAddr),
			zap.String("form_url", formURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func resolveSecret(logger *zap.Logger) ([]byte, error) {
	if flagSecret != "" {
		return []byte(flagSecret), nil
	}
	if env := os.Getenv("QBE_SECRET"); env != "" {
		return []byte(env), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	logger.Warn("no signing secret configured, using a random per-process secret")
	return secret, nil
}
