// Package chat holds the mention-driven conversation flow.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"amora-bot/internal/command"
	"amora-bot/internal/mind"
)

type ChatCommand struct{}

func (c *ChatCommand) Name() string        { return "chat" }
func (c *ChatCommand) Description() string { return "Responde quando a Amora é mencionada" }
func (c *ChatCommand) Group() string       { return "chat" }

func (c *ChatCommand) Run(ctx interface{}) error { return nil } // message-driven only

// Message handles a mention. An active mode consumes the message before the
// normal conversational reply path runs.
func (c *ChatCommand) Message(mc *command.MessageContext) error {
	ctx := context.Background()
	id := mc.Identity()
	engine := mc.Engine
	content := stripMentions(mc.Event.Content, mc.Session.State.User.ID)

	engine.Affection.UpdateLastInteraction(ctx, id)

	if st := engine.Modes.IsIn(ctx, id, ""); st.Active {
		reply := c.handleMode(ctx, mc, st, content)
		return send(mc, reply)
	}

	profile := engine.Composer.BuildProfile(ctx, id, content)
	reply := composeReply(profile, mc.Event.Author.Username)
	engine.Sessions.RecordExchange(ctx, id, content, reply)
	return send(mc, reply)
}

func (c *ChatCommand) handleMode(ctx context.Context, mc *command.MessageContext, st mind.ModeStatus, content string) string {
	id := mc.Identity()
	engine := mc.Engine

	switch st.Mode {
	case mind.ModeSlotFilling:
		state := engine.Modes.ProcessSlotFillingResponse(ctx, id, content)
		if state == nil {
			return "Hmm, me perdi na nossa conversa. Me pergunta de novo?"
		}
		if state.Completed {
			engine.Modes.End(ctx, id, mind.EndReasonCompleted)
			engine.Affection.IncrementLoveScore(ctx, id, 1)
			return fmt.Sprintf("%q... adorei saber! Vou guardar isso. 💜", state.UserResponse)
		}
		return "Ainda estou esperando sua resposta, viu?"

	case mind.ModeFantasy:
		state, done := engine.Modes.AdvanceRolePlay(ctx, id, content)
		if state == nil {
			return "Acho que nossa fantasia se desfez... começamos outra?"
		}
		if done {
			engine.Modes.End(ctx, id, mind.EndReasonCompleted)
			return fmt.Sprintf("E assim termina nossa história de %s... foi incrível! ✨", state.Scenario)
		}
		return fmt.Sprintf("*continua a história* (%d/%d) O que você faz agora?", state.Turn, state.MaxTurns)

	case mind.ModeCrying:
		return "*snif* ainda estou chorando... um abraço ajudaria. 🥺"

	default:
		log.Warn().Str("mode", st.Mode).Msg("unknown active mode, ending")
		engine.Modes.End(ctx, id, mind.EndReasonCancelled)
		return composeReply(engine.Composer.BuildProfile(ctx, id, content), mc.Event.Author.Username)
	}
}

// composeReply picks a canned persona reply from the profile.
func composeReply(p mind.Profile, username string) string {
	var b strings.Builder

	switch p.TimeOfDay {
	case mind.TimeMadrugada:
		b.WriteString("Acordada a essa hora? ")
	case mind.TimeManha:
		b.WriteString("Bom dia! ")
	case mind.TimeTarde:
		b.WriteString("Boa tarde! ")
	default:
		b.WriteString("Boa noite! ")
	}

	switch p.Relationship {
	case mind.RelBestFriend:
		b.WriteString(fmt.Sprintf("%s, meu melhor amigo! Que bom te ver. 💜", username))
	case mind.RelCloseFriend:
		b.WriteString(fmt.Sprintf("Oi %s, sempre fico feliz quando você aparece!", username))
	case mind.RelFriend:
		b.WriteString(fmt.Sprintf("Oi %s! Como você está?", username))
	case mind.RelAcquaintance:
		b.WriteString(fmt.Sprintf("Oi %s, bom te ver de novo.", username))
	default:
		b.WriteString(fmt.Sprintf("Oi %s, ainda estamos nos conhecendo, né?", username))
	}

	if len(p.Topics) > 0 {
		switch p.Topics[0] {
		case "musica":
			b.WriteString(" Falando em música, adoro cantarolar!")
		case "jogos":
			b.WriteString(" Jogos? Conta qual você anda jogando!")
		case "comida":
			b.WriteString(" Agora fiquei com fome também...")
		case "animais":
			b.WriteString(" Ai, eu amo bichinhos! 🐰")
		}
	}

	return b.String()
}

// stripMentions drops the bot's own mention tokens so the mode protocols see
// just the user's words.
func stripMentions(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}

func send(mc *command.MessageContext, reply string) error {
	_, err := mc.Session.ChannelMessageSend(mc.Event.ChannelID, reply)
	if err != nil {
		log.Warn().Err(err).Str("channel", mc.Event.ChannelID).Msg("failed to send reply")
	}
	return err
}

func init() {
	command.Register(&ChatCommand{})
}
