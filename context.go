package norah

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	guestAgentCode = "AG-GUEST"
	errorAgentCode = "AG-ERROR"
	maxWeek        = 4
)

// defaultContext is the safe fallback used whenever the store can't answer.
func defaultContext(agentCode string) IntelContext {
	return IntelContext{AgentCode: agentCode, Week: 1}
}

// BuildContext assembles the IntelContext for the user carried by ctx.
// It never fails: a missing user yields AG-GUEST, any store error AG-ERROR.
func BuildContext(ctx context.Context, store DataStore, now time.Time, cfg Config) IntelContext {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		return defaultContext(guestAgentCode)
	}

	userID, err := store.CurrentUser(ctx)
	if err != nil {
		log.Warn("current user lookup failed", zap.Error(err))
		return defaultContext(errorAgentCode)
	}
	if userID == "" {
		return defaultContext(guestAgentCode)
	}

	code, err := store.AgentCode(ctx, userID)
	if err != nil {
		log.Warn("agent code lookup failed", zap.String("user_id", userID), zap.Error(err))
		return defaultContext(errorAgentCode)
	}
	if code == "" {
		code = derivedAgentCode(userID)
	}

	limit := cfg.ClueWindow
	if limit <= 0 {
		limit = 20
	}
	clues, err := store.RecentClues(ctx, userID, limit)
	if err != nil {
		log.Warn("recent clues lookup failed", zap.String("user_id", userID), zap.Error(err))
		return defaultContext(errorAgentCode)
	}
	if len(clues) > limit {
		clues = clues[:limit]
	}

	owned := make([]Clue, len(clues))
	copy(owned, clues)

	epoch := cfg.Epoch
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}

	return IntelContext{
		AgentCode: code,
		Week:      WeekNumber(epoch, now),
		UserClues: owned,
		Totals: Totals{
			Found: len(owned),
			Today: countToday(owned, now),
		},
	}
}

// WeekNumber returns clamp(ceil(daysSinceEpoch/7), 1, 4).
func WeekNumber(epoch, now time.Time) int {
	days := now.Sub(epoch).Hours() / 24.0
	week := int(math.Ceil(days / 7.0))
	if week < 1 {
		return 1
	}
	if week > maxWeek {
		return maxWeek
	}
	return week
}

func countToday(clues []Clue, now time.Time) int {
	y, m, d := now.UTC().Date()
	n := 0
	for _, c := range clues {
		cy, cm, cd := c.CreatedAt.UTC().Date()
		if cy == y && cm == m && cd == d {
			n++
		}
	}
	return n
}

// derivedAgentCode builds a code for profiles that never picked one.
func derivedAgentCode(userID string) string {
	id := strings.ToUpper(strings.ReplaceAll(userID, "-", ""))
	if utf8.RuneCountInString(id) > 4 {
		id = string([]rune(id)[:4])
	}
	return "AG-" + id
}
