package bot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ClanPulse/db"
	"ClanPulse/telegram"
)

const pollTimeoutSeconds = 30

// Gateway is the read access the commands use. The bot never talks to the
// upstream API directly.
type Gateway interface {
	Clan(ctx context.Context, tag string) ([]byte, error)
	Player(ctx context.Context, tag string) ([]byte, error)
	War(ctx context.Context, tag string) ([]byte, error)
}

// Bot is the chat-command frontend: clan/player/war lookups plus the
// bind/unbind/mytag binding surface.
type Bot struct {
	tg      *telegram.Client
	gateway Gateway
	store   *db.Store
	clanTag string
	log     *zap.Logger
}

func New(tg *telegram.Client, gateway Gateway, store *db.Store, clanTag string, log *zap.Logger) *Bot {
	return &Bot{tg: tg, gateway: gateway, store: store, clanTag: clanTag, log: log}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.log.Info("telegram bot started")
	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.log.Info("telegram bot stopped")
			return
		default:
		}

		updates, err := b.tg.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.log.Warn("get updates failed", zap.Error(err))
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}

	command, arg := splitCommand(msg.Text)
	switch command {
	case "/start":
		b.reply(ctx, msg, "Welcome! Use /clan, /player <tag>, or /war to get Clash of Clans info.")
	case "/clan":
		b.handleClan(ctx, msg)
	case "/player":
		b.handlePlayer(ctx, msg, arg)
	case "/war":
		b.handleWar(ctx, msg)
	case "/bind":
		b.handleBind(ctx, msg, arg)
	case "/unbind":
		b.handleUnbind(ctx, msg)
	case "/mytag":
		b.handleMytag(ctx, msg)
	}
}

// splitCommand separates "/player #TAG" into command and argument, dropping
// the "@BotName" suffix groups add to commands.
func splitCommand(text string) (string, string) {
	fields := strings.Fields(text)
	command := fields[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	return command, arg
}

func (b *Bot) reply(ctx context.Context, msg *telegram.Message, text string) {
	if err := b.tg.SendMessage(ctx, msg.Chat.ID, text); err != nil {
		b.log.Warn("reply failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
	}
}
