// Package command defines the command surface: the interface every command
// implements, the registry the bot dispatches from, and the middleware
// wrappers applied at registration.
package command

import (
	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/mind"
	"amora-bot/internal/storage"
)

type Command interface {
	Name() string
	Description() string
	Group() string
	Run(ctx interface{}) error
}

// SlashProvider marks commands that register a slash definition.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// MessageHandler marks commands driven by plain messages that mention the bot.
type MessageHandler interface {
	Message(ctx *MessageContext) error
}

type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Engine  *mind.Engine
}

type MessageContext struct {
	Session *discordgo.Session
	Event   *discordgo.MessageCreate
	Engine  *mind.Engine
}

// User resolves the invoking user; interactions carry it under Member in
// guilds and directly in DMs.
func (c *SlashContext) User() *discordgo.User {
	if c.Event.Member != nil {
		return c.Event.Member.User
	}
	return c.Event.User
}

func (c *SlashContext) Identity() storage.Identity {
	return storage.NewIdentity(c.Event.GuildID, c.Event.ChannelID, c.User().ID)
}

func (c *MessageContext) Identity() storage.Identity {
	return storage.NewIdentity(c.Event.GuildID, c.Event.ChannelID, c.Event.Author.ID)
}

// StringOption returns the named string option of a slash invocation, or "".
func (c *SlashContext) StringOption(name string) string {
	for _, opt := range c.Event.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// IntOption returns the named integer option, or def when absent.
func (c *SlashContext) IntOption(name string, def int64) int64 {
	for _, opt := range c.Event.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return def
}

// Respond sends a visible interaction response.
func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// RespondEphemeral sends a response only the invoking user sees.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
