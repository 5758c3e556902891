package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DuplicatePolicy governs which CRM contacts are written when more than one
// contact shares the target email.
type DuplicatePolicy string

const (
	// UpdateAll writes the loyalty properties to every matching contact.
	UpdateAll DuplicatePolicy = "update-all"
	// UpdateNewestOnly writes only the most recently created match and
	// reports the rest as duplicates.
	UpdateNewestOnly DuplicatePolicy = "update-newest-only"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Shopify     ShopifyConfig
	CRM         CRMConfig
	Webhook     WebhookConfig
	Sync        SyncConfig
}

type ServerConfig struct {
	Port int
}

type ShopifyConfig struct {
	ShopDomain         string
	AccessToken        string
	APIVersion         string
	MetafieldNamespace string
	MetafieldKey       string
}

type CRMConfig struct {
	AccessToken string
	BaseURL     string
	SearchLimit int
}

type WebhookConfig struct {
	Secret string
	Path   string
}

type SyncConfig struct {
	DuplicatePolicy DuplicatePolicy
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("sync_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("sync_port", 8080)
	v.SetDefault("shopify_shop_domain", "")
	v.SetDefault("shopify_admin_token", "")
	v.SetDefault("shopify_api_version", "2024-10")
	v.SetDefault("loyalty_metafield_namespace", "loyalty")
	v.SetDefault("loyalty_metafield_key", "profile")
	v.SetDefault("hubspot_access_token", "")
	v.SetDefault("hubspot_base_url", "")
	v.SetDefault("shopify_webhook_secret", "")
	v.SetDefault("sync_webhook_path", "/webhooks/shopify")
	v.SetDefault("sync_duplicate_policy", string(UpdateAll))
	v.SetDefault("crm_search_limit", 20)

	env := resolveEnvironment(v)
	port := v.GetInt("sync_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid SYNC_PORT: %d", port)
	}

	policy := DuplicatePolicy(strings.TrimSpace(v.GetString("sync_duplicate_policy")))
	switch policy {
	case UpdateAll, UpdateNewestOnly:
	default:
		return Config{}, fmt.Errorf("invalid SYNC_DUPLICATE_POLICY: %q", policy)
	}

	searchLimit := v.GetInt("crm_search_limit")
	if searchLimit <= 0 {
		searchLimit = 20
	}
	if searchLimit > 100 {
		searchLimit = 100
	}

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Shopify: ShopifyConfig{
			ShopDomain:         strings.TrimSpace(v.GetString("shopify_shop_domain")),
			AccessToken:        strings.TrimSpace(v.GetString("shopify_admin_token")),
			APIVersion:         strings.TrimSpace(v.GetString("shopify_api_version")),
			MetafieldNamespace: strings.TrimSpace(v.GetString("loyalty_metafield_namespace")),
			MetafieldKey:       strings.TrimSpace(v.GetString("loyalty_metafield_key")),
		},
		CRM: CRMConfig{
			AccessToken: strings.TrimSpace(v.GetString("hubspot_access_token")),
			BaseURL:     strings.TrimSpace(v.GetString("hubspot_base_url")),
			SearchLimit: searchLimit,
		},
		Webhook: WebhookConfig{
			Secret: strings.TrimSpace(v.GetString("shopify_webhook_secret")),
			Path:   strings.TrimSpace(v.GetString("sync_webhook_path")),
		},
		Sync: SyncConfig{DuplicatePolicy: policy},
	}

	if cfg.Shopify.ShopDomain == "" {
		return Config{}, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if cfg.Shopify.AccessToken == "" {
		return Config{}, fmt.Errorf("SHOPIFY_ADMIN_TOKEN is required")
	}
	if cfg.CRM.AccessToken == "" {
		return Config{}, fmt.Errorf("HUBSPOT_ACCESS_TOKEN is required")
	}
	if cfg.Webhook.Secret == "" && !cfg.IsLocalDevelopment() {
		return Config{}, fmt.Errorf("SHOPIFY_WEBHOOK_SECRET is required outside local/dev environments")
	}

	return cfg, nil
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"sync_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
