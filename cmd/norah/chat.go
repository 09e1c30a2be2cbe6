package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goblincore/norah"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the analyst in the terminal",
	Long: `Starts an interactive conversation as the given user.

Commands:
  /reset   start over, as on logout
  /state   show the session phase
  /quit    exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringP("user", "u", "", "user id to chat as (empty: guest)")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	userID, _ := cmd.Flags().GetString("user")
	ctx := cmd.Context()
	if userID != "" {
		ctx = norah.WithUser(ctx, userID)
	}
	return chatLoop(ctx, a.engine, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop reads one message per line until EOF or /quit.
func chatLoop(ctx context.Context, e *norah.Engine, in io.Reader, out io.Writer) error {
	s := e.NewSession()
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit":
			return nil
		case "/reset":
			e.ResetSession(s)
			fmt.Fprintln(out, "(sessione azzerata)")
		case "/state":
			st := s.Status()
			fmt.Fprintf(out, "(%s, %d messaggi)\n", st.State, st.MessageCount)
		default:
			fmt.Fprintln(out, e.Reply(ctx, s, line))
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
