package care

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
	"amora-bot/internal/mind"
)

// CryModeTTL bounds how long Amora stays crying without being consoled.
const CryModeTTL = 10 * time.Minute

type CryCommand struct{}

func (c *CryCommand) Name() string        { return "chorar" }
func (c *CryCommand) Description() string { return "Deixa a Amora triste (até alguém consolar)" }
func (c *CryCommand) Group() string       { return "care" }

func (c *CryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "motivo",
				Description: "Por que ela está chorando?",
				Required:    false,
			},
		},
	}
}

func (c *CryCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()
	engine := slash.Engine

	reason := strings.TrimSpace(slash.StringOption("motivo"))
	if reason == "" {
		reason = "um dia difícil"
	}
	payload, _ := json.Marshal(map[string]string{"reason": reason})

	if !engine.Modes.Start(bg, id, mind.ModeCrying, string(payload), CryModeTTL) {
		return command.RespondEphemeral(slash.Session, slash.Event,
			"Não consegui ficar triste agora... tenta de novo?")
	}

	return command.Respond(slash.Session, slash.Event,
		fmt.Sprintf("*começa a chorar por causa de %s* 😢 Alguém me dá um `/abracar`?", reason))
}

func init() {
	command.Register(&CryCommand{},
		command.WithCooldown(command.CryCooldown),
		command.WithCommandLogger(),
	)
}
