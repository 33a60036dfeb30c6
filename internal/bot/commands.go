package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"brigade/internal/models"
	"brigade/internal/store"
	"brigade/internal/tenant"
)

// Inline keyboard types carrying the web_app field, which the tagged v5
// client does not model yet. BaseChat.ReplyMarkup is an interface{}, so
// any JSON-shaped markup passes through.
type webAppInfo struct {
	URL string `json:"url"`
}

type inlineButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

const helpText = "Commands:\n" +
	"/start – open the kitchen app\n" +
	"/shifts – your upcoming shifts\n" +
	"/waste <qty> <unit> <item> – log wastage, e.g. /waste 2 kg onions"

// HandleUpdate dispatches one webhook update for a tenant. Errors are
// logged and answered in-chat; the webhook itself always succeeds so
// Telegram does not retry.
func (m *Manager) HandleUpdate(ctx context.Context, t *tenant.Tenant, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	m.touchUser(ctx, t, msg.From)

	command := msg.Command()
	if command == "" {
		command = "none"
	}
	m.metrics.BotUpdates.WithLabelValues(t.Slug, command).Inc()

	switch command {
	case "start":
		m.handleStart(t, msg)
	case "shifts":
		m.handleShifts(ctx, t, msg)
	case "waste":
		m.handleWaste(ctx, t, msg)
	default:
		m.send(t.Slug, tgbotapi.NewMessage(msg.Chat.ID, helpText))
	}
}

// touchUser upserts the sender so the tenant's user list stays current
// even for people who never opened the Mini App.
func (m *Manager) touchUser(ctx context.Context, t *tenant.Tenant, from *tgbotapi.User) {
	now := m.now().UTC()
	u := &models.User{
		ID:         from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if t.IsManager(from.ID) {
		u.Role = models.RoleManager
	}
	if err := t.Store.Users().Upsert(ctx, u); err != nil {
		m.log.Warn("bot user upsert failed",
			zap.String("tenant", t.Slug), zap.Int64("user", from.ID), zap.Error(err))
	}
}

func (m *Manager) handleStart(t *tenant.Tenant, msg *tgbotapi.Message) {
	reply := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Welcome to %s. Open the kitchen app to manage recipes, counts, and shifts.", t.Name))
	if m.miniAppURL != "" {
		reply.ReplyMarkup = inlineKeyboard{InlineKeyboard: [][]inlineButton{{
			{Text: "Open kitchen app", WebApp: &webAppInfo{URL: m.miniAppURL}},
		}}}
	}
	m.send(t.Slug, reply)
}

func (m *Manager) handleShifts(ctx context.Context, t *tenant.Tenant, msg *tgbotapi.Message) {
	today := m.now().UTC().Format(models.DayFormat)
	shifts, err := t.Store.Shifts().List(ctx, store.ShiftFilter{
		From:          today,
		StaffID:       msg.From.ID,
		PublishedOnly: true,
	})
	if err != nil {
		m.log.Warn("bot shifts lookup failed", zap.String("tenant", t.Slug), zap.Error(err))
		m.send(t.Slug, tgbotapi.NewMessage(msg.Chat.ID, "Could not load your shifts, try again later."))
		return
	}
	m.send(t.Slug, tgbotapi.NewMessage(msg.Chat.ID, formatShifts(shifts)))
}

// formatShifts renders a compact shift list for chat.
func formatShifts(shifts []models.Shift) string {
	if len(shifts) == 0 {
		return "No upcoming shifts on the published schedule."
	}
	var b strings.Builder
	b.WriteString("Your upcoming shifts:\n")
	for _, s := range shifts {
		fmt.Fprintf(&b, "• %s %s–%s", s.Day, s.Start, s.End)
		if s.Station != "" {
			fmt.Fprintf(&b, " (%s)", s.Station)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Manager) handleWaste(ctx context.Context, t *tenant.Tenant, msg *tgbotapi.Message) {
	qty, unit, item, err := parseWasteArgs(msg.CommandArguments())
	if err != nil {
		m.send(t.Slug, tgbotapi.NewMessage(msg.Chat.ID,
			"Usage: /waste <qty> <unit> <item>, e.g. /waste 2 kg onions"))
		return
	}
	name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	entry := &models.WastageEntry{
		ID:         uuid.NewString(),
		ItemName:   item,
		Quantity:   qty,
		Unit:       unit,
		Reason:     models.WasteOther,
		RecordedBy: models.Actor{ID: msg.From.ID, Name: name},
		RecordedAt: m.now().UTC(),
	}
	if err := t.Store.Wastage().Create(ctx, entry); err != nil {
		m.log.Warn("bot wastage create failed", zap.String("tenant", t.Slug), zap.Error(err))
		m.send(t.Slug, tgbotapi.NewMessage(msg.Chat.ID, "Could not log that, try again later."))
		return
	}
	m.send(t.Slug, tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Logged: %g %s %s", qty, unit, item)))
}

// parseWasteArgs splits "<qty> <unit> <item...>".
func parseWasteArgs(args string) (qty float64, unit, item string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return 0, "", "", fmt.Errorf("want at least 3 fields, got %d", len(fields))
	}
	qty, err = strconv.ParseFloat(fields[0], 64)
	if err != nil || qty <= 0 {
		return 0, "", "", fmt.Errorf("invalid quantity %q", fields[0])
	}
	return qty, fields[1], strings.Join(fields[2:], " "), nil
}

// SchedulePublished notifies each affected staff member about their
// newly published shifts. Failures are logged; publishing never fails
// because a chat message did.
func (m *Manager) SchedulePublished(_ context.Context, slug string, shifts []models.Shift) {
	byStaff := make(map[int64][]models.Shift)
	for _, s := range shifts {
		byStaff[s.StaffID] = append(byStaff[s.StaffID], s)
	}
	for staffID, theirs := range byStaff {
		text := "Schedule published.\n" + formatShifts(theirs)
		m.send(slug, tgbotapi.NewMessage(staffID, text))
	}
}
