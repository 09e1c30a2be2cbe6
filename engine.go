package norah

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// ErrorReply is returned whenever reply generation fails unexpectedly.
	ErrorReply = "⚠️ Errore temporaneo del sistema AION. Riprova tra qualche istante."

	lowConfidenceThreshold = 0.3
	lowConfidenceNote      = "⚠️ Analisi preliminare, dati ancora scarsi. "
	sentenceCutRatio       = 0.7
)

// Engine is the Norah analyst: it turns a user message plus the agent's
// clues into a canned, deterministically varied reply.
type Engine struct {
	store      DataStore
	router     IntentClassifier
	config     Config
	log        *zap.Logger
	metrics    *Metrics
	closeStore func() error
}

// New creates an Engine reading from store.
func New(store DataStore, cfg Config) *Engine {
	cfg.ApplyDefaults()
	e := &Engine{
		store:   store,
		router:  cfg.Router,
		config:  cfg,
		log:     cfg.Logger.With(zap.String("component", "norah")),
		metrics: cfg.Metrics,
	}
	e.log.Debug("initialized",
		zap.Time("epoch", cfg.Epoch),
		zap.Int("clue_window", cfg.ClueWindow),
		zap.Duration("seed_bucket", cfg.SeedBucket),
	)
	return e
}

// Open creates an Engine backed by the SQLite store at cfg.DBPath.
func Open(cfg Config) (*Engine, error) {
	cfg.ApplyDefaults()
	store, err := NewStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	e := New(store, cfg)
	e.closeStore = store.Close
	return e, nil
}

// Close releases the store opened by Open.
func (e *Engine) Close() error {
	if e.closeStore != nil {
		return e.closeStore()
	}
	return nil
}

// NewSession creates an idle session (createSession).
func (e *Engine) NewSession() *Session {
	s := NewSession()
	s.lastSeen = e.config.Clock()
	return s
}

// ResetSession returns s to idle with a zero message count (logout).
func (e *Engine) ResetSession(s *Session) {
	if s != nil {
		s.Reset()
	}
}

// NewRegistry creates a session registry sharing the engine's clock, logger
// and SessionTTL. rateLimit is replies per second per key; 0 disables it.
func (e *Engine) NewRegistry(rateLimit float64, burst int) *Registry {
	return NewRegistry(RegistryOptions{
		TTL:       e.config.SessionTTL,
		RateLimit: rateLimit,
		Burst:     burst,
		Clock:     e.config.Clock,
		Logger:    e.log,
	})
}

type replyOptions struct {
	intent Intent
	seed   *int
}

// ReplyOption customizes a single Reply call.
type ReplyOption func(*replyOptions)

// WithIntent skips intent detection and uses intent instead.
func WithIntent(intent Intent) ReplyOption {
	return func(o *replyOptions) { o.intent = intent }
}

// WithSeed replaces the time-bucketed seed, for reproducible replies.
func WithSeed(seed int) ReplyOption {
	return func(o *replyOptions) { o.seed = &seed }
}

// Reply produces the analyst's answer to input within session s.
//
// It always returns a plain string no longer than Config.MaxReplyLen:
// guardrail refusals, the "need more clues" gate and internal failures are
// all expressed as reply text.
func (e *Engine) Reply(ctx context.Context, s *Session, input string, opts ...ReplyOption) (reply string) {
	start := time.Now()
	outcome := OutcomeReply

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("reply failed", zap.Any("panic", r), zap.Stack("stack"))
			reply = ErrorReply
			outcome = OutcomeError
		}
		reply = ClampReply(reply, e.config.MaxReplyLen)
		e.metrics.recordReply(outcome, time.Since(start))
	}()

	if s == nil {
		panic("norah: nil session")
	}

	var o replyOptions
	for _, opt := range opts {
		opt(&o)
	}

	// 1. Context
	now := e.config.Clock()
	ic := BuildContext(ctx, e.store, now, e.config)

	// 2. Guardrails
	if v := Enforce(input, ic, now); v.Blocked {
		outcome = OutcomeBlocked
		e.metrics.recordBlock(v.Rule)
		e.log.Debug("guardrail block", zap.String("rule", v.Rule), zap.String("agent", ic.AgentCode))
		return v.Text
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(now)

	// 3. First message of the session
	if s.messages == 0 {
		s.messages++
		outcome = OutcomeGreeting
		return Greeting(ic)
	}

	// 4–5. Intent and state
	intent := o.intent
	if intent == "" {
		intent = e.router.Classify(input, ic)
	}
	state := NextState(s.state, input, ic)
	s.state = state
	e.metrics.recordIntent(intent, state)

	// 6. State gate
	if !IsIntentValid(intent, state) {
		outcome = OutcomeGated
		return needMoreCluesText(ic)
	}

	// 7. Heuristics
	a := Analyze(intent, ic, now)

	// 8. Seed, template, variety
	seed := SeedFrom(ic, intent, state, TimeBucket(now, e.config.SeedBucket))
	if o.seed != nil {
		seed = *o.seed
	}
	text := Render(ic, a, intent, state, seed)

	// 9. Counter, persona, state prefix
	s.messages++
	text = InjectPersona(text, ic, s.messages, seed)
	text = StatePrefix(state, ic) + text

	// 10–11. Clamp, leaving room for the low-confidence note
	note := ""
	if a.Confidence < lowConfidenceThreshold {
		note = lowConfidenceNote
	}
	text = note + ClampReply(text, e.config.MaxReplyLen-utf8.RuneCountInString(note))

	e.log.Debug("reply",
		zap.String("agent", ic.AgentCode),
		zap.String("intent", string(intent)),
		zap.String("state", string(state)),
		zap.Int("seed", seed),
		zap.Float64("confidence", a.Confidence),
	)
	return text
}

func needMoreCluesText(ic IntelContext) string {
	return fmt.Sprintf("📂 Per questa analisi servono almeno %d indizi. Te ne mancano ancora %d: usa il Buzz sulla mappa per sbloccarli, poi riprova.", analyzeThreshold, cluesNeeded(ic))
}

// ClampReply limits text to limit characters. It cuts at the last '.', '?'
// or '!' found past 70% of the limit, otherwise hard-cuts with an ellipsis.
func ClampReply(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	floor := int(float64(limit) * sentenceCutRatio)
	for i := len(cut) - 1; i >= floor; i-- {
		switch cut[i] {
		case '.', '?', '!':
			return string(cut[:i+1])
		}
	}
	return string(runes[:limit-1]) + "…"
}
