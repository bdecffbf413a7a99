// Package discord wires the command registry to a Discord gateway session.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"amora-bot/internal/command"
	"amora-bot/internal/config"
	"amora-bot/internal/mind"
)

// Bot is the Discord front end over the state engine.
type Bot struct {
	dg     *discordgo.Session
	engine *mind.Engine
	cfg    *config.Config
}

// StartBot runs the bot until ctx is done.
func StartBot(ctx context.Context, cfg *config.Config, engine *mind.Engine) error {
	b := &Bot{cfg: cfg, engine: engine}
	if err := b.run(ctx, cfg.DiscordToken); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context, token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, closing Discord session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if err := b.registerCommands(g.ID); err != nil {
			log.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
		}
	}
	log.Info().Str("user", s.State.User.Username).Int("guilds", len(r.Guilds)).Msg("bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Info().Str("guild", g.Guild.ID).Str("name", g.Guild.Name).Msg("joined guild")
	if err := b.registerCommands(g.Guild.ID); err != nil {
		log.Error().Err(err).Str("guild", g.Guild.ID).Msg("failed to register slash commands")
	}
}

// onMessageCreate routes mentions of the bot to the message-driven commands.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	mentioned := m.GuildID == "" // DMs always address the bot
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return
	}

	mc := &command.MessageContext{Session: s, Event: m, Engine: b.engine}
	for _, cmd := range command.All() {
		handler, ok := cmd.(command.MessageHandler)
		if !ok {
			continue
		}
		if err := handler.Message(mc); err != nil {
			log.Error().Err(err).Str("command", cmd.Name()).Msg("message command failed")
		}
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		log.Warn().Str("command", name).Msg("unknown slash command")
		return
	}

	sc := &command.SlashContext{Session: s, Event: i, Engine: b.engine}
	if err := cmd.Run(sc); err != nil {
		log.Error().Err(err).Str("command", name).Msg("slash command failed")
		_ = command.RespondEphemeral(s, i, "Ops, algo deu errado... tenta de novo?")
	}
}

// registerCommands creates the slash definitions for one guild.
func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	for _, cmd := range command.All() {
		slash, ok := cmd.(command.SlashProvider)
		if !ok {
			continue
		}
		def := slash.SlashDefinition()
		if def == nil {
			continue
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, def); err != nil {
			log.Error().Err(err).Str("command", def.Name).Str("guild", guildID).Msg("failed to create slash command")
		}
	}
	return nil
}
