package norah

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentAbout       Intent = "about"       // Who/what the analyst is
	IntentClassify    Intent = "classify"    // Group the collected clues
	IntentPatterns    Intent = "patterns"    // Look for recurring terms
	IntentDecode      Intent = "decode"      // Try toy ciphers on clue text
	IntentProbability Intent = "probability" // How close the agent is
	IntentMentor      Intent = "mentor"      // General guidance
)

// Intents lists every intent in router order.
var Intents = []Intent{
	IntentAbout,
	IntentClassify,
	IntentPatterns,
	IntentDecode,
	IntentProbability,
	IntentMentor,
}

// ErrUnknownIntent is returned by ParseIntent for names outside the enum.
var ErrUnknownIntent = errors.New("norah: unknown intent")

// ParseIntent maps a name to an Intent.
func ParseIntent(s string) (Intent, error) {
	for _, in := range Intents {
		if string(in) == s {
			return in, nil
		}
	}
	return "", ErrUnknownIntent
}

// SessionState is the coarse engagement phase of a session.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateCollect SessionState = "collect"
	StateAnalyze SessionState = "analyze"
	StateAdvise  SessionState = "advise"
)

// Clue is a timestamped piece of text the agent has unlocked.
type Clue struct {
	ID        string
	Title     string
	Text      string
	CreatedAt time.Time
}

// Totals are the aggregate counters shown to the agent.
type Totals struct {
	Found   int
	Today   int
	Premium int // reserved
}

// IntelContext is the per-request snapshot every stage reads from.
// It is built by BuildContext and never mutated afterwards.
type IntelContext struct {
	AgentCode string
	Week      int // 1..4
	UserClues []Clue
	Totals    Totals
}

// Decoding is one successful toy-decoding attempt.
type Decoding struct {
	Method string // "base64", "caesar", "reverse", "ascii"
	Source string
	Output string
}

// Analysis is the heuristic result for one request.
type Analysis struct {
	Clusters   [][]string
	Keywords   []string
	Decoded    []Decoding
	Recency    []float64 // per clue, 0.0 – 1.0
	Confidence float64   // 0.0 – 1.0
}

// Config holds engine initialization parameters.
type Config struct {
	DBPath      string           // SQLite path used by Open (default: ./data/norah.db)
	Epoch       time.Time        // Start of week 1 (default: 2025-09-01 UTC)
	ClueWindow  int              // Recent clues loaded per request (default 20)
	MaxReplyLen int              // Reply clamp in characters (default 800)
	SeedBucket  time.Duration    // Seed time bucket (default 30s)
	SessionTTL  time.Duration    // Registry idle eviction (default 30m)
	Clock       func() time.Time // Default time.Now
	Logger      *zap.Logger      // Default zap.NewNop()
	Metrics     *Metrics         // Optional
	Router      IntentClassifier // Default KeywordRouter
}

// DefaultEpoch is the first day of week 1.
var DefaultEpoch = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "./data/norah.db"
	}
	if c.Epoch.IsZero() {
		c.Epoch = DefaultEpoch
	}
	if c.ClueWindow <= 0 {
		c.ClueWindow = 20
	}
	if c.MaxReplyLen <= 0 {
		c.MaxReplyLen = 800
	}
	if c.SeedBucket <= 0 {
		c.SeedBucket = 30 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Router == nil {
		c.Router = NewKeywordRouter()
	}
}
