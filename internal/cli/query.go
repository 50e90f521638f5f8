package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a single question against the index",
	Long: `Answers one question using the persisted index and exits. The
answer is grounded on the most relevant chunks; their sources are
listed after the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureSession(); err != nil {
		return err
	}

	answer, err := session.Query(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Println(answerStyle.Render(answer.Text))
	if atts := answer.Sources.Attributions(); len(atts) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, att := range atts {
			line := "  - " + att.Source
			if att.Snippet != "" {
				line += ": " + att.Snippet
			}
			cmd.Println(sourceStyle.Render(line))
		}
	}
	cmd.Println()
	cmd.Println(statusStyle.Render(fmt.Sprintf("Answered in %.2fs", answer.Elapsed.Seconds())))
	return nil
}
