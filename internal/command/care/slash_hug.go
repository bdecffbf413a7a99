// Package care holds the affection-facing slash commands.
package care

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
	"amora-bot/internal/mind"
)

type HugCommand struct{}

func (c *HugCommand) Name() string        { return "abracar" }
func (c *HugCommand) Description() string { return "Dá um abraço na Amora" }
func (c *HugCommand) Group() string       { return "care" }

func (c *HugCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HugCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()
	engine := slash.Engine

	engine.Affection.IncrementHugs(bg, id, 1)
	engine.Affection.IncrementLoveScore(bg, id, 1)

	if engine.Modes.ConsoleIfCrying(bg, id) {
		return command.Respond(slash.Session, slash.Event,
			"*enxuga as lágrimas* Obrigada pelo abraço... eu precisava disso. 🥹💜")
	}

	score := engine.Affection.Score(bg, id)
	switch mind.RelationshipStatus(score) {
	case mind.RelBestFriend, mind.RelCloseFriend:
		return command.Respond(slash.Session, slash.Event,
			"*abraça apertado* Seus abraços são os melhores! 💜")
	case mind.RelFriend:
		return command.Respond(slash.Session, slash.Event,
			"*abraça de volta* Que abraço gostoso! 🤗")
	default:
		return command.Respond(slash.Session, slash.Event,
			"*abraça timidamente* Ah... obrigada! 😊")
	}
}

func init() {
	command.Register(&HugCommand{},
		command.WithCooldown(command.HugCooldown),
		command.WithCommandLogger(),
	)
}
