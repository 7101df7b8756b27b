package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/output"
	"github.com/leapstack-labs/askdb/internal/session"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <file> <question...>",
		Short: "Ask a one-shot question about a data file",
		Long: `Load a CSV or Excel file and answer one natural-language question.

The question is translated to SQL by the configured model and executed
against the uploaded table. The generated SQL is echoed before the result.`,
		Example: `  askdb ask sales.csv "What is the average sales by region?"
  askdb ask report.xlsx "Top 5 products by revenue" --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args[0], strings.TrimSpace(strings.Join(args[1:], " ")))
		},
	}
}

func runAsk(cmd *cobra.Command, path, question string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	ctx := cmd.Context()

	res, err := cmdCtx.Session.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	r.Printf("Loaded %s: %d rows, %d columns\n", path, res.Table.NumRows(), len(res.Columns))

	ans, err := askWithProgress(ctx, cmdCtx.Session, r, question)
	if err != nil {
		// Echo the statement that failed before surfacing the engine error.
		if ans != nil && ans.SQL != "" {
			r.SQL(ans.SQL)
		}
		return err
	}

	presentAnswer(r, ans, nil)
	return nil
}

// askWithProgress runs the question pipeline with an in-progress indication
// while the model call is in flight.
func askWithProgress(ctx context.Context, sess *session.Session, r *output.Renderer, question string) (*session.Answer, error) {
	r.Println(r.Styles().Muted.Render("Thinking..."))
	return sess.Ask(ctx, question)
}

// presentAnswer renders one Answer, converting every failure mode into
// user-facing feedback. Execution errors are shown alongside the SQL that
// caused them.
func presentAnswer(r *output.Renderer, ans *session.Answer, err error) {
	if err != nil {
		if ans != nil && ans.SQL != "" {
			r.SQL(ans.SQL)
		}
		r.Errorf("Error: %v", err)
		return
	}

	if ans.NoSQL {
		r.Warnf("The model did not return a SQL query. Try rephrasing.")
		r.Println(ans.Raw)
		return
	}

	r.SQL(ans.SQL)
	if renderErr := r.RenderTable(ans.Result); renderErr != nil {
		r.Errorf("Error: %v", renderErr)
	}
}
