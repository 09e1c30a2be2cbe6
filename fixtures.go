package norah

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixtures is a YAML seed file of agents and their clues, used for local
// play and demos:
//
//	agents:
//	  - user_id: u1
//	    agent_code: AG-007
//	    clues:
//	      - title: Il faro
//	        text: La luce gira dove il mare incontra la pietra
//	        created_at: 2025-09-03T10:00:00Z
type Fixtures struct {
	Agents []AgentFixture `yaml:"agents"`
}

// AgentFixture is one agent profile with its clues.
type AgentFixture struct {
	UserID    string        `yaml:"user_id"`
	AgentCode string        `yaml:"agent_code"`
	Clues     []ClueFixture `yaml:"clues"`
}

// ClueFixture is one clue; CreatedAt defaults to the import time.
type ClueFixture struct {
	ID        string    `yaml:"id,omitempty"`
	Title     string    `yaml:"title"`
	Text      string    `yaml:"text"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}

// LoadFixtures decodes a fixtures document.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return f, nil
		}
		return f, fmt.Errorf("norah: decode fixtures: %w", err)
	}
	for i, a := range f.Agents {
		if a.UserID == "" {
			return f, fmt.Errorf("norah: fixtures agent %d: missing user_id", i)
		}
	}
	return f, nil
}

// ImportFixtures writes every profile and clue in f. It returns the number
// of clues stored.
func (s *Store) ImportFixtures(ctx context.Context, f Fixtures) (int, error) {
	n := 0
	for _, a := range f.Agents {
		if err := s.UpsertProfile(ctx, a.UserID, a.AgentCode); err != nil {
			return n, fmt.Errorf("norah: import profile %s: %w", a.UserID, err)
		}
		for _, c := range a.Clues {
			if _, err := s.InsertClue(ctx, a.UserID, Clue{
				ID:        c.ID,
				Title:     c.Title,
				Text:      c.Text,
				CreatedAt: c.CreatedAt,
			}); err != nil {
				return n, fmt.Errorf("norah: import clue for %s: %w", a.UserID, err)
			}
			n++
		}
	}
	return n, nil
}
