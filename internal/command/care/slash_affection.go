package care

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
	"amora-bot/internal/mind"
)

type AffectionCommand struct{}

func (c *AffectionCommand) Name() string        { return "carinho" }
func (c *AffectionCommand) Description() string { return "Mostra como anda sua amizade com a Amora" }
func (c *AffectionCommand) Group() string       { return "care" }

func (c *AffectionCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

var relationshipLabels = map[string]string{
	mind.RelStranger:     "ainda nos conhecendo",
	mind.RelAcquaintance: "conhecidos",
	mind.RelFriend:       "amigos",
	mind.RelCloseFriend:  "amigos próximos",
	mind.RelBestFriend:   "melhores amigos",
}

func (c *AffectionCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()
	score := slash.Engine.Affection.Score(bg, id)

	hearts := int(score*10) / 2
	bar := ""
	for i := 0; i < 5; i++ {
		if i < hearts {
			bar += "💜"
		} else {
			bar += "🤍"
		}
	}

	return command.RespondEphemeral(slash.Session, slash.Event,
		fmt.Sprintf("Nossa amizade: %s\nSomos %s (carinho: %s)",
			bar, relationshipLabels[mind.RelationshipStatus(score)], mind.Level(score)))
}

func init() {
	command.Register(&AffectionCommand{}, command.WithCommandLogger())
}
