package bot

import (
	"context"
	"errors"
	"html"

	"go.uber.org/zap"

	"ClanPulse/coc"
	"ClanPulse/db"
	"ClanPulse/telegram"
)

func (b *Bot) handleClan(ctx context.Context, msg *telegram.Message) {
	payload, err := b.gateway.Clan(ctx, b.clanTag)
	if err != nil {
		b.reply(ctx, msg, lookupErrorMessage(err, "clan"))
		return
	}
	b.reply(ctx, msg, FormatClan(payload))
}

func (b *Bot) handlePlayer(ctx context.Context, msg *telegram.Message, arg string) {
	if arg == "" {
		b.reply(ctx, msg, "Usage: /player <tag>")
		return
	}
	payload, err := b.gateway.Player(ctx, arg)
	if err != nil {
		b.reply(ctx, msg, lookupErrorMessage(err, "player"))
		return
	}
	b.reply(ctx, msg, FormatPlayer(payload))
}

func (b *Bot) handleWar(ctx context.Context, msg *telegram.Message) {
	payload, err := b.gateway.War(ctx, b.clanTag)
	if err != nil {
		b.reply(ctx, msg, lookupErrorMessage(err, "war"))
		return
	}
	b.reply(ctx, msg, FormatWar(payload))
}

func (b *Bot) handleBind(ctx context.Context, msg *telegram.Message, arg string) {
	if !msg.Chat.IsGroup() {
		b.reply(ctx, msg, "This command can only be used in group chats.")
		return
	}
	if arg == "" {
		b.reply(ctx, msg, "Usage: /bind #PLAYER_TAG")
		return
	}

	tag, err := coc.NormalizeTag(arg)
	if err != nil {
		b.reply(ctx, msg, "Invalid player tag format.")
		return
	}

	// Best-effort validation against the game. A dead upstream must not stop
	// binding: the mapping is purely local state.
	if _, err := b.gateway.Player(ctx, tag); err != nil {
		switch {
		case errors.Is(err, coc.ErrNotFound):
			b.reply(ctx, msg, "Player not found.")
			return
		case errors.Is(err, coc.ErrRateLimited):
			b.reply(ctx, msg, "Rate limit reached. Please try again later.")
			return
		case errors.Is(err, coc.ErrUnauthorized), errors.Is(err, coc.ErrForbidden):
			b.reply(ctx, msg, "The game API token is not working. Please tell the bot admin.")
			return
		default:
			b.log.Warn("bind validation skipped, upstream unavailable",
				zap.String("tag", tag), zap.Error(err))
		}
	}

	binding, err := b.store.UpsertBinding(db.Binding{
		Scope:     msg.Chat.ID,
		UserID:    msg.From.ID,
		PlayerTag: tag,
		UserName:  msg.From.FullName(),
	})
	if err != nil {
		b.log.Error("bind failed", zap.Int64("scope", msg.Chat.ID), zap.Error(err))
		b.reply(ctx, msg, "Could not save your binding. Please try again.")
		return
	}

	mention := telegram.Mention(binding.UserID, binding.UserName)
	b.reply(ctx, msg, "Bound "+mention+" to "+html.EscapeString(binding.PlayerTag))
}

func (b *Bot) handleUnbind(ctx context.Context, msg *telegram.Message) {
	if !msg.Chat.IsGroup() {
		b.reply(ctx, msg, "This command can only be used in group chats.")
		return
	}
	removed, err := b.store.DeleteBinding(msg.Chat.ID, msg.From.ID)
	if err != nil {
		b.log.Error("unbind failed", zap.Int64("scope", msg.Chat.ID), zap.Error(err))
		b.reply(ctx, msg, "Could not remove your binding. Please try again.")
		return
	}
	if !removed {
		b.reply(ctx, msg, "No binding found for your account in this group.")
		return
	}
	mention := telegram.Mention(msg.From.ID, msg.From.FullName())
	b.reply(ctx, msg, "Removed binding for "+mention+".")
}

func (b *Bot) handleMytag(ctx context.Context, msg *telegram.Message) {
	if !msg.Chat.IsGroup() {
		b.reply(ctx, msg, "This command can only be used in group chats.")
		return
	}
	binding, err := b.store.GetBinding(msg.Chat.ID, msg.From.ID)
	if errors.Is(err, db.ErrNotBound) {
		b.reply(ctx, msg, "No tag bound for your account in this group.")
		return
	}
	if err != nil {
		b.log.Error("mytag failed", zap.Int64("scope", msg.Chat.ID), zap.Error(err))
		b.reply(ctx, msg, "Could not look up your binding. Please try again.")
		return
	}
	b.reply(ctx, msg, "Your bound tag is "+html.EscapeString(binding.PlayerTag))
}

func lookupErrorMessage(err error, what string) string {
	switch {
	case errors.Is(err, coc.ErrInvalidTag):
		return "Invalid tag format."
	case errors.Is(err, coc.ErrNotFound):
		return "Not found. Double-check the tag."
	case errors.Is(err, coc.ErrRateLimited):
		return "Rate limit reached. Please try again later."
	case errors.Is(err, coc.ErrUnauthorized), errors.Is(err, coc.ErrForbidden):
		return "The game API token is not working. Please tell the bot admin."
	case errors.Is(err, coc.ErrTimeout):
		return "The game API timed out. Please try again later."
	default:
		return "Could not fetch " + what + " data right now. Please try again later."
	}
}
