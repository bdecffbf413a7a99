package mind

import (
	"context"
	"strings"
	"time"

	"amora-bot/internal/storage"
)

// Temporal buckets for response flavoring.
const (
	TimeMadrugada = "madrugada" // 0-6h
	TimeManha     = "manha"     // 6-12h
	TimeTarde     = "tarde"     // 12-18h
	TimeNoite     = "noite"     // 18-24h
)

// Profile is the per-request personalization bundle handed to the response
// generators. They read it; they never mutate engine state through it.
type Profile struct {
	Identity     storage.Identity
	Score        float64
	Level        string
	Relationship string
	TimeOfDay    string
	Topics       []string
	Summary      string
}

// topicKeywords drives the lightweight preference detection. The full
// keyword brains live outside this core; this is only the handful of topics
// the composer flags for personalization. Ordered so detection is stable.
var topicKeywords = []struct {
	topic string
	words []string
}{
	{"musica", []string{"música", "musica", "cantar", "canção", "banda"}},
	{"jogos", []string{"jogo", "jogar", "game", "partida"}},
	{"comida", []string{"comida", "comer", "fome", "lanche", "pizza"}},
	{"animais", []string{"gato", "cachorro", "coelho", "animal", "pet"}},
}

// Composer assembles user profiles from the scorer and session layers.
type Composer struct {
	affection *Affection
	sessions  *Sessions
}

func NewComposer(affection *Affection, sessions *Sessions) *Composer {
	return &Composer{affection: affection, sessions: sessions}
}

// BuildProfile computes the profile for id, scanning content for topic hints.
func (c *Composer) BuildProfile(ctx context.Context, id storage.Identity, content string) Profile {
	score := c.affection.Score(ctx, id)
	p := Profile{
		Identity:     id,
		Score:        score,
		Level:        Level(score),
		Relationship: RelationshipStatus(score),
		TimeOfDay:    TimeOfDayBucket(time.Now()),
		Topics:       DetectTopics(content),
	}
	if sess := c.sessions.GetOrCreate(ctx, id); sess.Summary.Valid {
		p.Summary = sess.Summary.String
	}
	return p
}

// TimeOfDayBucket maps a wall-clock instant to its temporal bucket.
func TimeOfDayBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h < 6:
		return TimeMadrugada
	case h < 12:
		return TimeManha
	case h < 18:
		return TimeTarde
	default:
		return TimeNoite
	}
}

// DetectTopics returns the topics whose keywords appear in content.
func DetectTopics(content string) []string {
	lower := strings.ToLower(content)
	var topics []string
	for _, tk := range topicKeywords {
		for _, w := range tk.words {
			if strings.Contains(lower, w) {
				topics = append(topics, tk.topic)
				break
			}
		}
	}
	return topics
}
