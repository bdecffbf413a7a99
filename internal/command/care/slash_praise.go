package care

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
	"amora-bot/internal/mind"
)

type PraiseCommand struct{}

func (c *PraiseCommand) Name() string        { return "elogio" }
func (c *PraiseCommand) Description() string { return "Faz um elogio para a Amora" }
func (c *PraiseCommand) Group() string       { return "care" }

func (c *PraiseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mensagem",
				Description: "O que você quer dizer?",
				Required:    false,
			},
		},
	}
}

func (c *PraiseCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()
	engine := slash.Engine

	engine.Affection.IncrementLoveScore(bg, id, 2)
	engine.Affection.UpdateLastInteraction(bg, id)

	if engine.Modes.ConsoleIfCrying(bg, id) {
		return command.Respond(slash.Session, slash.Event,
			"*para de chorar aos poucos* Você é muito gentil... obrigada. 🥹")
	}

	msg := strings.TrimSpace(slash.StringOption("mensagem"))
	if msg != "" {
		return command.Respond(slash.Session, slash.Event,
			fmt.Sprintf("%q... *fica vermelha* Você fala cada coisa! 💜", msg))
	}

	if mind.Level(engine.Affection.Score(bg, id)) == mind.LevelHigh {
		return command.Respond(slash.Session, slash.Event,
			"Vindo de você, um elogio vale em dobro! 💜")
	}
	return command.Respond(slash.Session, slash.Event,
		"*sorri* Obrigada! Você alegrou meu dia. 😊")
}

func init() {
	command.Register(&PraiseCommand{},
		command.WithCooldown(command.PraiseCooldown),
		command.WithCommandLogger(),
	)
}
