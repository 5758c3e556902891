package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/config"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/crm"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/identity"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/loyalty"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/server"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/server/routes"
	webhookshopify "github.com/EpicMarks/epicmarks-loyalty-sync/internal/webhooks/shopify"
	"github.com/EpicMarks/epicmarks-loyalty-sync/pkg/hubspot"
	"github.com/EpicMarks/epicmarks-loyalty-sync/pkg/shopify"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	shopClient, err := shopify.New(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken,
		shopify.WithAPIVersion(cfg.Shopify.APIVersion))
	if err != nil {
		slog.Error("Failed to build shopify client", "error", err)
		os.Exit(1)
	}

	var crmOpts []hubspot.ClientOption
	if cfg.CRM.BaseURL != "" {
		crmOpts = append(crmOpts, hubspot.WithBaseURL(cfg.CRM.BaseURL))
	}
	crmClient, err := hubspot.New(cfg.CRM.AccessToken, crmOpts...)
	if err != nil {
		slog.Error("Failed to build crm client", "error", err)
		os.Exit(1)
	}

	handler := webhookshopify.NewHandler(
		identity.NewResolver(shopClient),
		loyalty.NewFetcher(shopClient, cfg.Shopify.MetafieldNamespace, cfg.Shopify.MetafieldKey),
		crm.NewReconciler(crmClient, cfg.Sync.DuplicatePolicy, cfg.CRM.SearchLimit),
		cfg.Webhook.Secret,
		cfg.IsLocalDevelopment(),
		log,
	)

	srv := server.New(log)
	srv.RegisterRouter(routes.NewWebhookRoutes(handler, cfg.Webhook.Path))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Loyalty sync listening", "addr", addr, "webhook_path", cfg.Webhook.Path, "duplicate_policy", string(cfg.Sync.DuplicatePolicy))
	if err := srv.Start(addr); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
