// Package chatbot implements the canned wellness-assistant responder: an
// ordered list of keyword rules evaluated against the user's message and
// current metrics snapshot, with a fixed fallback pool. No learning, no
// external calls.
package chatbot

import (
	"math/rand"
	"strings"
	"time"

	"github.com/bloomwell/bloom/internal/domain/model"
)

// Stress thresholds used by the stress rule.
const (
	highStressLevel     = 70
	moderateStressLevel = 40
)

// Greeting is the opening bot message for a fresh conversation.
const Greeting = "Hello! I'm your AI wellness assistant. How are you feeling today?"

// rule matches any of its keywords as a substring of the lowercased message.
type rule struct {
	keywords []string
	respond  func(m model.UserMetrics) string
}

// Responder produces canned replies. Safe for single-goroutine use; the
// fallback choice draws from its own rng.
type Responder struct {
	rules     []rule
	fallbacks []string
	rng       *rand.Rand
}

// Option applies a configuration option to the Responder.
type Option func(*Responder)

// WithRandSource seeds the fallback selection for deterministic replies.
func WithRandSource(seed int64) Option {
	return func(r *Responder) {
		r.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // canned-reply selection, not security sensitive
	}
}

// New creates a Responder with the fixed rule set.
func New(opts ...Option) *Responder {
	r := &Responder{
		rules: []rule{
			{
				keywords: []string{"stress", "stressed"},
				respond: func(m model.UserMetrics) string {
					switch {
					case m.StressLevel > highStressLevel:
						return "I notice your stress levels are quite high. Would you like to try a quick breathing exercise to help calm down?"
					case m.StressLevel > moderateStressLevel:
						return "Your stress levels are moderate. How about we take a short mindfulness break?"
					default:
						return "Your stress levels look good! Would you like to maintain this with a quick meditation session?"
					}
				},
			},
			{
				keywords: []string{"tired", "exhausted"},
				respond: func(model.UserMetrics) string {
					return "You might need a break. Try the Pomodoro technique: 25 minutes of focused work followed by a 5-minute break. Want me to set a timer?"
				},
			},
			{
				keywords: []string{"anxious", "worried"},
				respond: func(model.UserMetrics) string {
					return "I hear you. Let's try grounding ourselves. Can you tell me 5 things you can see right now?"
				},
			},
			{
				keywords: []string{"help", "support"},
				respond: func(model.UserMetrics) string {
					return "I'm here to help! Would you like to: \n1. Talk about what's bothering you\n2. Try a relaxation exercise\n3. Connect with a wellness advisor"
				},
			},
		},
		fallbacks: []string{
			"How has your day been going so far?",
			"Would you like to try a quick wellness activity?",
			"I'm here to support you. What's on your mind?",
			"Remember, it's okay to take breaks when you need them.",
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // canned-reply selection, not security sensitive
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Respond returns the reply for a user message. Rules are checked in order;
// the first keyword hit wins, otherwise a fallback is chosen at random.
func (r *Responder) Respond(text string, m model.UserMetrics) string {
	lower := strings.ToLower(text)
	for _, rl := range r.rules {
		for _, kw := range rl.keywords {
			if strings.Contains(lower, kw) {
				return rl.respond(m)
			}
		}
	}
	return r.fallbacks[r.rng.Intn(len(r.fallbacks))]
}
