package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/askdb/internal/output"
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl [file]",
		Short: "Start an interactive analysis session",
		Long: `Start an interactive session: load a data file, then ask questions in
plain language. Lines starting with a dot are commands; everything else is
sent to the model as a question about the loaded table.`,
		Example: `  askdb repl sales.csv
  askdb repl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return runRepl(cmd, file)
		},
	}
}

func runRepl(cmd *cobra.Command, file string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "askdb> ",
		HistoryFile:     cmdCtx.Cfg.HistoryFile,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	printBanner(r, cmdCtx)

	if file != "" {
		loadAndPreview(ctx, cmdCtx, file)
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if line == ".quit" || line == ".exit" {
				break
			}
			handleDotCommand(ctx, cmdCtx, line)
			continue
		}

		// Anything else is a natural-language question.
		ans, askErr := askWithProgress(ctx, cmdCtx.Session, r, line)
		presentAnswer(r, ans, askErr)
		r.Println()
	}

	return nil
}

func printBanner(r *output.Renderer, cmdCtx *CommandContext) {
	styles := r.Styles()
	r.Println(styles.Banner.Render("askdb - ask questions about your data"))
	if !cmdCtx.Session.HasSynthesizer() {
		r.Println(styles.Warning.Render("No API key configured. Use .key to enter one."))
	}
	r.Println(styles.Muted.Render("Example: What is the average sales by region?"))
	r.Println(styles.Muted.Render("Type .help for commands, .quit to exit"))
	r.Println()
}

func loadAndPreview(ctx context.Context, cmdCtx *CommandContext, path string) {
	r := cmdCtx.Renderer

	res, err := cmdCtx.Session.LoadFile(ctx, path)
	if err != nil {
		r.Errorf("Error: %v", err)
		return
	}

	r.Successf("Loaded %s into table %q", path, cmdCtx.Session.TableName())
	r.Printf("Columns: %s\n", strings.Join(res.Columns, ", "))
	previewTable(cmdCtx, 5)
}

// previewTable shows the first n rows of the uploaded data.
func previewTable(cmdCtx *CommandContext, n int) {
	tbl := cmdCtx.Session.Current().Table
	preview := *tbl
	if len(preview.Rows) > n {
		preview.Rows = preview.Rows[:n]
	}
	if err := cmdCtx.Renderer.RenderTable(&preview); err != nil {
		cmdCtx.Renderer.Errorf("Error: %v", err)
	}
}

func handleDotCommand(ctx context.Context, cmdCtx *CommandContext, line string) {
	r := cmdCtx.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".help":
		printReplHelp(r)

	case ".load":
		if len(parts) < 2 {
			r.Errorf("Usage: .load <file>")
			return
		}
		loadAndPreview(ctx, cmdCtx, parts[1])

	case ".preview":
		if cmdCtx.Session.Current() == nil {
			r.Errorf("No data loaded. Use .load <file> first.")
			return
		}
		n := 10
		if len(parts) > 1 {
			if _, err := fmt.Sscanf(parts[1], "%d", &n); err != nil || n < 1 {
				r.Errorf("Usage: .preview [rows]")
				return
			}
		}
		previewTable(cmdCtx, n)

	case ".schema":
		cols, err := cmdCtx.Session.Metadata(ctx)
		if err != nil {
			r.Errorf("Error: %v", err)
			return
		}
		for _, col := range cols {
			r.Printf("  %-24s %s\n", col.Name, col.Type)
		}

	case ".sql":
		stmt := strings.TrimSpace(strings.TrimPrefix(line, ".sql"))
		if stmt == "" {
			r.Errorf("Usage: .sql <statement>")
			return
		}
		tbl, err := cmdCtx.Session.RunSQL(ctx, stmt)
		if err != nil {
			r.Errorf("Error: %v", err)
			return
		}
		if err := r.RenderTable(tbl); err != nil {
			r.Errorf("Error: %v", err)
		}

	case ".key":
		promptAPIKey(cmdCtx)

	case ".format":
		if len(parts) < 2 || !output.ValidFormat(parts[1]) {
			r.Errorf("Usage: .format table|json|csv|md")
			return
		}
		r.SetFormat(output.Format(parts[1]))
		r.Successf("Output format set to %s", parts[1])

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		r.Errorf("Unknown command: %s (type .help for commands)", command)
	}
}

// promptAPIKey reads the key without echoing it and wires up the model
// provider. The key lives only in process memory.
func promptAPIKey(cmdCtx *CommandContext) {
	r := cmdCtx.Renderer
	r.Printf("Enter API key: ")

	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	r.Println()
	if err != nil {
		r.Errorf("Error reading key: %v", err)
		return
	}

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		r.Warnf("No key entered.")
		return
	}

	cmdCtx.Cfg.APIKey = key
	if err := installSynthesizer(cmdCtx.Session, cmdCtx.Cfg, cmdCtx.Logger); err != nil {
		r.Errorf("Error: %v", err)
		return
	}
	r.Successf("API key saved for this session.")
}

func printReplHelp(r *output.Renderer) {
	help := `
Commands:
  .load <file>     Load a CSV or Excel file (replaces the current table)
  .preview [n]     Show the first n rows of the loaded data (default 10)
  .schema          Show the loaded table's schema
  .sql <stmt>      Run a SQL statement directly, bypassing the model
  .key             Enter the model API key (input is hidden)
  .format <f>      Set output format: table, json, csv, md
  .clear           Clear the screen
  .help            Show this help message
  .quit / .exit    Exit

Anything that does not start with a dot is asked as a question about the
loaded table.`
	r.Println(help)
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".load"),
		readline.PcItem(".preview"),
		readline.PcItem(".schema"),
		readline.PcItem(".sql"),
		readline.PcItem(".key"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
