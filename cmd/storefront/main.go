package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/cartsync/internal/app"
	"github.com/abgdnv/cartsync/internal/cart"
	"github.com/abgdnv/cartsync/internal/config"
	"github.com/abgdnv/cartsync/internal/wishlist"
	"github.com/abgdnv/cartsync/pkg/bootstrap"
	"github.com/abgdnv/cartsync/pkg/config/configloader"
)

const appName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the session, reconciles collection state with the backend
// for authenticated sessions, and idles until the process is signalled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](appName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	session, err := app.NewSession(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build session: %w", err)
	}

	session.Cart.AddObserver("log", func(snap cart.Snapshot) {
		logger.Debug("cart changed", "count", snap.TotalCount, "subtotal", snap.Subtotal)
	})
	session.Wishlist.AddObserver("log", func(snap wishlist.Snapshot) {
		logger.Debug("wishlist changed", "count", snap.Count)
	})

	if session.Auth.IsAuthenticated {
		logger.Info("authenticated session, reconciling with backend", "user_id", session.Auth.UserID)
		if err := session.Reconciler.SyncOnLogin(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("reconciliation failed: %w", err)
		}
	} else {
		logger.Info("anonymous session, using local state only")
	}

	logger.Info("session ready",
		"cart_items", len(session.Cart.Items()),
		"wishlist_items", len(session.Wishlist.IDs()))

	<-ctx.Done()
	return nil
}
