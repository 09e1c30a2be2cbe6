package norah

import "context"

// DataStore is the read-only view of the game backend the engine consumes.
// Built-in: Store (SQLite). Implement this over any other backend.
type DataStore interface {
	// CurrentUser returns the authenticated user id, or "" when anonymous.
	CurrentUser(ctx context.Context) (string, error)
	// AgentCode returns the profile's agent code, or "" when unset.
	AgentCode(ctx context.Context, userID string) (string, error)
	// RecentClues returns the user's clues newest first, at most limit.
	RecentClues(ctx context.Context, userID string, limit int) ([]Clue, error)
}

// IntentClassifier determines the intent of a user message.
// Built-in: KeywordRouter (fixed keyword lists, clue-count default).
type IntentClassifier interface {
	Classify(input string, ic IntelContext) Intent
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user id set by WithUser, or "".
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
