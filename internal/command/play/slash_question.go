package play

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"

	"amora-bot/internal/command"
)

// QuestionModeTTL bounds how long an unanswered question stays pending.
const QuestionModeTTL = 5 * time.Minute

var questions = []struct {
	text         string
	expectedType string
}{
	{"Qual é o seu animal favorito?", "animal"},
	{"Qual comida você comeria todo dia?", "comida"},
	{"Qual música não sai da sua cabeça?", "musica"},
	{"Qual jogo você mais jogou na vida?", "jogo"},
	{"Qual é o seu lugar favorito no mundo?", "lugar"},
}

type QuestionCommand struct{}

func (c *QuestionCommand) Name() string        { return "pergunta" }
func (c *QuestionCommand) Description() string { return "A Amora faz uma pergunta e espera sua resposta" }
func (c *QuestionCommand) Group() string       { return "play" }

func (c *QuestionCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *QuestionCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	bg := context.Background()
	id := slash.Identity()
	engine := slash.Engine

	q := questions[rand.Intn(len(questions))]
	if !engine.Modes.StartSlotFilling(bg, id, q.text, q.expectedType, QuestionModeTTL) {
		return command.RespondEphemeral(slash.Session, slash.Event,
			"Fiquei sem perguntas na cabeça... tenta de novo?")
	}

	return command.Respond(slash.Session, slash.Event,
		fmt.Sprintf("🤔 %s Me menciona com a resposta!", q.text))
}

func init() {
	command.Register(&QuestionCommand{},
		command.WithCooldown(command.QuestionCooldown),
		command.WithCommandLogger(),
	)
}
