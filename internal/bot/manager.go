// Package bot runs one Telegram bot per tenant: webhook registration,
// inbound command dispatch, and outbound notifications.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"brigade/internal/monitoring"
	"brigade/internal/tenant"
)

// Manager owns the per-tenant bot clients.
type Manager struct {
	log      *zap.Logger
	registry *tenant.Registry
	metrics  *monitoring.Metrics

	publicURL        string
	miniAppURL       string
	removeOnShutdown bool

	bots map[string]*tgbotapi.BotAPI
	now  func() time.Time
}

// NewManager wires a manager over the registry's tenants. Bots are not
// contacted until Start.
func NewManager(log *zap.Logger, registry *tenant.Registry, metrics *monitoring.Metrics, publicURL, miniAppURL string, removeOnShutdown bool) *Manager {
	return &Manager{
		log:              log,
		registry:         registry,
		metrics:          metrics,
		publicURL:        strings.TrimRight(publicURL, "/"),
		miniAppURL:       miniAppURL,
		removeOnShutdown: removeOnShutdown,
		bots:             make(map[string]*tgbotapi.BotAPI),
		now:              time.Now,
	}
}

// WebhookPath is the route prefix the API server mounts for updates.
const WebhookPath = "/telegram/webhook"

func (m *Manager) webhookURL(slug string) string {
	return fmt.Sprintf("%s%s/%s", m.publicURL, WebhookPath, slug)
}

// Start creates each tenant's bot client and points its webhook at this
// service. A tenant whose bot cannot be reached fails startup; better to
// crash-loop visibly than run a kitchen without its bot.
func (m *Manager) Start(ctx context.Context) error {
	for _, t := range m.registry.All() {
		api, err := tgbotapi.NewBotAPI(t.BotToken)
		if err != nil {
			return fmt.Errorf("tenant %s: create bot: %w", t.Slug, err)
		}
		// The tagged v5 client predates Bot API 6.0, so the secret_token
		// parameter is sent through the raw request path.
		params := tgbotapi.Params{
			"url":          m.webhookURL(t.Slug),
			"secret_token": t.WebhookSecret,
		}
		if _, err := api.MakeRequest("setWebhook", params); err != nil {
			return fmt.Errorf("tenant %s: set webhook: %w", t.Slug, err)
		}
		m.bots[t.Slug] = api
		m.log.Info("bot webhook registered",
			zap.String("tenant", t.Slug),
			zap.String("bot", api.Self.UserName))
	}
	return nil
}

// Shutdown optionally deregisters webhooks. Leaving them in place lets
// Telegram queue updates across a restart.
func (m *Manager) Shutdown(ctx context.Context) {
	if !m.removeOnShutdown {
		return
	}
	for slug, api := range m.bots {
		if _, err := api.MakeRequest("deleteWebhook", tgbotapi.Params{}); err != nil {
			m.log.Warn("delete webhook failed", zap.String("tenant", slug), zap.Error(err))
		}
	}
}

func (m *Manager) send(slug string, msg tgbotapi.Chattable) {
	api, ok := m.bots[slug]
	if !ok {
		m.log.Warn("send for unknown tenant bot", zap.String("tenant", slug))
		return
	}
	if _, err := api.Send(msg); err != nil {
		m.log.Warn("telegram send failed", zap.String("tenant", slug), zap.Error(err))
	}
}
