package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goblincore/norah"
)

const mcpVersion = "1.0.0"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the analyst as an MCP stdio server",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sessions := a.engine.NewRegistry(0, 0)
	sessions.Start(cfg.Server.SweepInterval)
	defer sessions.Close()

	server := newMCPServer(a.engine, a.store, sessions, logger)
	logger.Info("mcp server running on stdio")
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("norah mcp: %w", err)
	}
	return nil
}

// clueLister is the store view list_clues needs.
type clueLister interface {
	RecentClues(ctx context.Context, userID string, limit int) ([]norah.Clue, error)
}

func newMCPServer(e *norah.Engine, clues clueLister, sessions *norah.Registry, log *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "norah",
		Version: mcpVersion,
	}, nil)

	// --- Tool: analyst_reply ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyst_reply",
		Description: "Send a message to Norah, the AION analyst, on behalf of an agent. The first message of a session returns a greeting.",
	}, replyHandler(e, sessions, log))

	// --- Tool: reset_session ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_session",
		Description: "Reset an agent's conversation to idle, as on logout. The next message is greeted again.",
	}, resetHandler(sessions))

	// --- Tool: session_state ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_state",
		Description: "Show the current phase (idle, collect, analyze, advise) and message count of an agent's conversation.",
	}, stateHandler(sessions))

	// --- Tool: list_clues ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_clues",
		Description: "List an agent's most recent clues, newest first.",
	}, listCluesHandler(clues))

	return server
}

// --- Input types ---

type replyInput struct {
	UserID  string `json:"user_id"          jsonschema:"Authenticated user id of the agent"`
	Message string `json:"message"          jsonschema:"What the agent wrote"`
	Intent  string `json:"intent,omitempty" jsonschema:"Optional intent override: about, classify, patterns, decode, probability, mentor"`
}

type userInput struct {
	UserID string `json:"user_id" jsonschema:"Authenticated user id of the agent"`
}

type listCluesInput struct {
	UserID string `json:"user_id"         jsonschema:"Authenticated user id of the agent"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max clues to list (default 20)"`
}

// --- Handlers ---

func replyHandler(e *norah.Engine, sessions *norah.Registry, log *zap.Logger) func(context.Context, *mcp.CallToolRequest, replyInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input replyInput) (*mcp.CallToolResult, any, error) {
		var opts []norah.ReplyOption
		if input.Intent != "" {
			intent, err := norah.ParseIntent(input.Intent)
			if err != nil {
				return textResult(fmt.Sprintf("error: %v", err)), nil, nil
			}
			opts = append(opts, norah.WithIntent(intent))
		}

		s := sessions.Get(input.UserID)
		text := e.Reply(norah.WithUser(ctx, input.UserID), s, input.Message, opts...)
		log.Debug("mcp reply", zap.String("user_id", input.UserID), zap.String("session", s.ID))
		return textResult(text), nil, nil
	}
}

func resetHandler(sessions *norah.Registry) func(context.Context, *mcp.CallToolRequest, userInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input userInput) (*mcp.CallToolResult, any, error) {
		sessions.Reset(input.UserID)
		return textResult(jsonString(map[string]any{
			"user_id": input.UserID,
			"status":  "reset",
		})), nil, nil
	}
}

func stateHandler(sessions *norah.Registry) func(context.Context, *mcp.CallToolRequest, userInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input userInput) (*mcp.CallToolResult, any, error) {
		return textResult(jsonString(sessions.Get(input.UserID).Status())), nil, nil
	}
}

func listCluesHandler(store clueLister) func(context.Context, *mcp.CallToolRequest, listCluesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input listCluesInput) (*mcp.CallToolResult, any, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		clues, err := store.RecentClues(ctx, input.UserID, limit)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(map[string]any{
			"count": len(clues),
			"clues": cluesToMaps(clues),
		})), nil, nil
	}
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func cluesToMaps(clues []norah.Clue) []map[string]any {
	out := make([]map[string]any, len(clues))
	for i, c := range clues {
		out[i] = map[string]any{
			"id":         c.ID,
			"title":      c.Title,
			"text":       c.Text,
			"created_at": c.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}

func jsonString(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal: %v"}`, err)
	}
	return string(data)
}
