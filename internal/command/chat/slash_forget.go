package chat

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
	"amora-bot/internal/mind"
)

type ForgetCommand struct{}

func (c *ForgetCommand) Name() string        { return "esquecer" }
func (c *ForgetCommand) Description() string { return "Apaga a conversa atual com a Amora" }
func (c *ForgetCommand) Group() string       { return "chat" }

func (c *ForgetCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *ForgetCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()

	if slash.Engine.Modes.IsIn(bg, id, "").Active {
		slash.Engine.Modes.End(bg, id, mind.EndReasonCancelled)
	}
	slash.Engine.Sessions.Reset(bg, id)

	return command.RespondEphemeral(slash.Session, slash.Event,
		"Prontinho, começamos do zero! Do que estávamos falando mesmo? 😉")
}

func init() {
	command.Register(&ForgetCommand{}, command.WithCommandLogger())
}
