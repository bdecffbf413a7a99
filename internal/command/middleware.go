package command

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"amora-bot/internal/mind"
)

// Base cooldowns per command, before the per-user adjustment.
const (
	HugCooldown      = 30 * time.Second
	PraiseCooldown   = 30 * time.Second
	CryCooldown      = 2 * time.Minute
	FantasyCooldown  = time.Minute
	QuestionCooldown = time.Minute
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	return w.wrap(ctx)
}

// WithCooldown rate-limits a slash command per user. The base duration is
// adjusted per user from their usage history before being recorded; a user
// still on cooldown gets an ephemeral notice instead of the command running.
func WithCooldown(base time.Duration) Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				slash, ok := ctx.(*SlashContext)
				if !ok {
					return cmd.Run(ctx)
				}

				bg := context.Background()
				id := slash.Identity()
				ledger := slash.Engine.Cooldowns

				if remaining, on := ledger.Remaining(bg, id, cmd.Name()); on {
					return RespondEphemeral(slash.Session, slash.Event,
						fmt.Sprintf("Calma! Você pode usar esse comando de novo em %ds. 💜", int(remaining.Seconds())+1))
				}

				if err := cmd.Run(ctx); err != nil {
					return err
				}

				ledger.NoteUse(id)
				effective := mind.DynamicCooldown(base, ledger.Usage(bg, id))
				ledger.Set(bg, id, cmd.Name(), effective)
				return nil
			},
		}
	}
}

// WithCommandLogger logs every invocation with the who and where.
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if slash, ok := ctx.(*SlashContext); ok {
					log.Info().
						Str("command", cmd.Name()).
						Str("guild", slash.Event.GuildID).
						Str("user", slash.User().ID).
						Msg("command invoked")
				}
				return cmd.Run(ctx)
			},
		}
	}
}
