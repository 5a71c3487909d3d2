package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/cache"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	loadDotEnv(".env")
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand, filled in by the root
// PersistentPreRunE.
type app struct {
	cfg Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "cacau",
		Short:         "Cocoa purchasing back office: suppliers, scale tickets, purchases and payments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			a.cfg = cfg
			a.log = newLogger(cfg)
			slog.SetDefault(a.log)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.serve(cmd.Context())
			},
		},
		a.migrateCmd(),
		a.userCmd(),
		a.reportCmd(),
		a.ticketsCmd(),
	)
	return root
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	if a.cfg.insecureSecret {
		a.log.Warn("JWT_SECRET not set, using the development secret")
	}
	if a.cfg.GinMode != "" {
		gin.SetMode(a.cfg.GinMode)
	}

	db, err := prepareDB(ctx, a.cfg, a.log, false)
	if err != nil {
		return err
	}
	c, closeCache := a.reportCache(ctx)
	defer closeCache()
	svc := services.New(db, c, a.log, a.cfg.ReportCacheTTL)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           newRouter(newAPI(svc, a.cfg, a.log), a.cfg, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// reportCache connects the Redis report cache shared by the server and the
// CLI. The returned func releases the connection.
func (a *app) reportCache(ctx context.Context) (cache.Cache, func()) {
	c := cache.FromAddr(ctx, a.cfg.RedisAddr, a.log)
	if closer, ok := c.(io.Closer); ok {
		return c, func() { _ = closer.Close() }
	}
	return c, func() {}
}
