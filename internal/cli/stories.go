package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"storywriter/internal/library"
)

const storyColumnWidth = 48

// runStories builds the handler for the stories command.
func runStories(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", "", "Path to config file (default: search for .storywriter.yml)")
		limit := flags.Int("limit", library.DefaultLimit, "Maximum number of runs to list")
		asJSON := flags.Bool("json", false, "Print runs as JSON")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if *limit <= 0 {
			fmt.Fprintln(stderr, "--limit must be a positive integer")
			return ExitUsage
		}

		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		ctx, stop := commandContext(stderr, false)
		defer stop()
		store, err := openLibrary(ctx, cfg.Library.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open story library: %v\n", err)
			return ExitError
		}
		defer store.Close()

		runs, err := store.List(ctx, *limit)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to list stories: %v\n", err)
			return ExitError
		}
		if *asJSON {
			if runs == nil {
				runs = []library.Run{}
			}
			encoder := json.NewEncoder(stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(runs); err != nil {
				fmt.Fprintf(stderr, "Failed to encode stories: %v\n", err)
				return ExitError
			}
			return ExitOK
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "No stories recorded yet.")
			return ExitOK
		}
		printRuns(stdout, runs)
		return ExitOK
	}
}

// printRuns writes runs as an aligned table.
func printRuns(w io.Writer, runs []library.Run) {
	table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tSTARTED\tPAGES\tSTATUS\tSTORY")
	for _, run := range runs {
		status := string(run.Status)
		if run.Error != "" {
			status += " (" + run.Error + ")"
		}
		fmt.Fprintf(table, "%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Pages,
			status,
			truncate(strings.Join(strings.Fields(run.Story), " "), storyColumnWidth))
	}
	_ = table.Flush()
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
