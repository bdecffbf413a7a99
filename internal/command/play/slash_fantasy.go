// Package play holds the role-play and question-game slash commands.
package play

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
)

const (
	// FantasyModeTTL bounds an abandoned role-play.
	FantasyModeTTL = 15 * time.Minute

	defaultMaxTurns = 5
	maxMaxTurns     = 20
)

type FantasyCommand struct{}

func (c *FantasyCommand) Name() string        { return "fantasia" }
func (c *FantasyCommand) Description() string { return "Começa uma história interativa com a Amora" }
func (c *FantasyCommand) Group() string       { return "play" }

func (c *FantasyCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minTurns := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "cenario",
				Description: "Onde a história acontece?",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "turnos",
				Description: "Quantos turnos a história dura (padrão 5)",
				Required:    false,
				MinValue:    &minTurns,
				MaxValue:    maxMaxTurns,
			},
		},
	}
}

func (c *FantasyCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()
	engine := slash.Engine

	scenario := strings.TrimSpace(slash.StringOption("cenario"))
	if scenario == "" {
		return command.RespondEphemeral(slash.Session, slash.Event,
			"Preciso de um cenário para imaginar a história!")
	}
	turns := int(slash.IntOption("turnos", defaultMaxTurns))

	if !engine.Modes.StartRolePlay(bg, id, scenario, turns, FantasyModeTTL) {
		return command.RespondEphemeral(slash.Session, slash.Event,
			"Não consegui começar a história agora... tenta de novo?")
	}

	return command.Respond(slash.Session, slash.Event,
		fmt.Sprintf("✨ *fecha os olhos* Estamos em %s... me menciona contando o que você faz! (%d turnos)",
			scenario, turns))
}

func init() {
	command.Register(&FantasyCommand{},
		command.WithCooldown(command.FantasyCooldown),
		command.WithCommandLogger(),
	)
}
