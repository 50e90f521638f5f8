package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/doclore/doclore/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts a conversation against the index. Answers stream in as
they are generated and follow-up questions see the recent history.

Type "clear" to forget the conversation, "exit" or "quit" to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := ensureSession(); err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		p := tea.NewProgram(tui.New(session), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("chat UI: %w", err)
		}
		return nil
	}
	return plainChat(cmd)
}

// plainChat is the line-oriented fallback for piped input.
func plainChat(cmd *cobra.Command) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			session.ClearMemory()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		start := time.Now()
		hits, deltas, err := session.QueryStream(cmd.Context(), line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		failed := false
		for delta := range deltas {
			if delta.Err != nil {
				fmt.Fprintf(out, "\nerror: %v\n", delta.Err)
				failed = true
				break
			}
			fmt.Fprint(out, delta.Text)
		}
		if failed {
			continue
		}
		fmt.Fprintln(out)

		if atts := hits.Attributions(); len(atts) > 0 {
			fmt.Fprintln(out, "Sources:")
			for _, att := range atts {
				line := "  - " + att.Source
				if att.Snippet != "" {
					line += ": " + att.Snippet
				}
				fmt.Fprintln(out, sourceStyle.Render(line))
			}
		}
		fmt.Fprintln(out, statusStyle.Render(fmt.Sprintf("Answered in %.2fs", time.Since(start).Seconds())))
		fmt.Fprintln(out)
	}
}
