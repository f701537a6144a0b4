package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oddsradar/oddsradar/internal/pkg/config"
	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// Min interval between any two Telegram messages to the same chat to
// avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// Notifier sends operator alerts: cycle failures and unusually large
// cross-source price gaps. All methods are safe on a nil receiver, so
// callers never need to check whether alerting is configured.
type Notifier struct {
	bot              *tgbotapi.BotAPI
	chatID           int64
	diffAlertPercent float64
	cooldown         time.Duration

	mu        sync.Mutex
	lastSend  time.Time
	lastAlert map[string]time.Time // fixture|outcome -> last alert time
}

// NewNotifier creates the notifier, or nil when alerting is disabled or
// the bot cannot be reached.
func NewNotifier(cfg *config.TelegramConfig) *Notifier {
	if cfg == nil || !cfg.Enabled || cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	return &Notifier{
		bot:              bot,
		chatID:           cfg.ChatID,
		diffAlertPercent: cfg.DiffAlertPercent,
		cooldown:         time.Duration(cfg.AlertCooldownMinutes) * time.Minute,
		lastAlert:        make(map[string]time.Time),
	}
}

// ScanForAlerts checks every fixture's per-outcome spread between the
// cheapest and the best price and alerts when it exceeds the configured
// threshold. Repeated alerts for the same fixture and outcome are
// suppressed for the cooldown window.
func (n *Notifier) ScanForAlerts(fixtures []*models.AggregatedFixture, now time.Time) {
	if n == nil || n.diffAlertPercent <= 0 {
		return
	}

	for _, f := range fixtures {
		for _, outcome := range []string{"home", "draw", "away"} {
			low, lowSrc, high, highSrc := spreadForOutcome(f, outcome)
			if low <= 0 || high <= low {
				continue
			}
			gapPct := (high/low - 1) * 100
			if gapPct < n.diffAlertPercent {
				continue
			}
			if !n.shouldAlert(f.CanonicalKey+"|"+outcome, now) {
				continue
			}

			text := fmt.Sprintf(
				"⚠️ Price gap %.1f%% on %s (%s)\n%s: %.2f vs %s: %.2f\nstarts %s",
				gapPct, f.DisplayTeams, outcome,
				highSrc, high, lowSrc, low,
				f.StartTime.Format("2006-01-02 15:04"))
			n.send(text)
		}
	}
}

// AlertCycleFailure notifies the operator that a cycle failed.
func (n *Notifier) AlertCycleFailure(err error) {
	if n == nil {
		return
	}
	n.send(fmt.Sprintf("❌ Reconciliation cycle failed: %v", err))
}

func (n *Notifier) shouldAlert(key string, now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.lastAlert[key]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.lastAlert[key] = now
	return true
}

func (n *Notifier) send(text string) {
	n.mu.Lock()
	if wait := telegramSendInterval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Failed to send telegram alert", "error", err)
	}
}

// spreadForOutcome returns the lowest and highest positive price for one
// outcome across the fixture's sources, with the sources quoting them.
func spreadForOutcome(f *models.AggregatedFixture, outcome string) (low float64, lowSrc string, high float64, highSrc string) {
	for source, q := range f.SourceQuotes {
		var price float64
		switch outcome {
		case "home":
			price = q.Home
		case "draw":
			price = q.Draw
		case "away":
			price = q.Away
		}
		if price <= 0 {
			continue
		}
		if low == 0 || price < low {
			low = price
			lowSrc = source
		}
		if price > high {
			high = price
			highSrc = source
		}
	}
	return low, lowSrc, high, highSrc
}
