package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"storywriter/internal/config"
	"storywriter/internal/story"
	"storywriter/internal/ui/live"
)

// runLiveUI is a test seam for the interactive UI.
var runLiveUI = live.Run

// runWrite builds the handler for the write command.
func runWrite(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", "", "Path to config file (default: search for .storywriter.yml)")
		endpoint := flags.String("endpoint", "", "Run-script endpoint URL")
		storyText := flags.String("story", "", "Story prompt")
		pages := flags.Int("pages", 0, fmt.Sprintf("Number of pages (1-%d)", story.MaxPages))
		path := flags.String("path", "", "Folder the story script writes to")
		uiMode := flags.String("ui", "auto", "Output mode: auto|live|plain")
		noColor := flags.Bool("no-color", false, "Disable colors in the live UI")
		verbose := flags.Bool("verbose", false, "Plain output with debug logging")
		logFile := flags.String("log-file", "", "Write logs to this file (live UI only)")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if *pages < 0 || *pages > story.MaxPages {
			fmt.Fprintf(stderr, "--pages must be between 1 and %d\n", story.MaxPages)
			return ExitUsage
		}

		cfg, err := writeConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		target := strings.TrimSpace(*endpoint)
		if target == "" {
			target = cfg.Client.Endpoint
		}
		storiesPath := strings.TrimSpace(*path)
		if storiesPath == "" {
			storiesPath = cfg.Stories.Path
		}
		client, err := story.NewClient(target, http.DefaultClient)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid endpoint: %v\n", err)
			return ExitUsage
		}

		decision, err := resolveUIMode(*uiMode, *verbose, stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}
		req := story.Request{Story: *storyText, Pages: *pages, Path: storiesPath}

		if decision.useLive {
			return writeLive(client, req, *noColor, *logFile, stdout, stderr)
		}
		return writePlain(client, req, *verbose, stdout, stderr)
	}
}

// writeConfig loads the config when one is given or found, and falls back to
// defaults otherwise.
func writeConfig(configPath string) (config.Config, error) {
	if strings.TrimSpace(configPath) == "" {
		found, err := config.FindConfigPath("")
		if err != nil {
			return config.Default(), nil
		}
		configPath = found
	}
	cfg, _, err := loadConfig(configPath)
	return cfg, err
}

// writePlain runs one story and prints progress lines.
func writePlain(client story.Starter, req story.Request, verbose bool, stdout, stderr io.Writer) int {
	if err := req.Validate(); err != nil {
		fmt.Fprintf(stderr, "Plain output needs --story and --pages: %v\n", err)
		return ExitUsage
	}
	ctx, stop := commandContext(stderr, verbose)
	defer stop()
	state, err := story.Run(ctx, client, req, live.NewPlain(stdout))
	return exitForRun(state, err, stderr)
}

// writeLive starts the interactive UI. Logs go to logFile, or nowhere, so
// they cannot garble the screen.
func writeLive(client story.Starter, req story.Request, noColor bool, logFile string, stdout, stderr io.Writer) int {
	var logOut io.Writer
	if logFile != "" {
		file, err := openLogFile(logFile)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitError
		}
		defer file.Close()
		logOut = file
	}
	ctx, stop := commandContext(logOut, false)
	defer stop()
	autoRun := req.Validate() == nil
	state, err := runLiveUI(ctx, stdout, live.Options{
		NoColor:      noColor,
		Submit:       live.Submitter(ctx, client),
		Prefill:      req,
		AutoSubmit:   autoRun,
		QuitWhenDone: false,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Live UI failed: %v\n", err)
		return ExitError
	}
	if state.Failure != "" {
		fmt.Fprintf(stderr, "Story generation failed: %s\n", state.Failure)
		return ExitError
	}
	return ExitOK
}

// exitForRun maps the outcome of a run to an exit code.
func exitForRun(state story.State, err error, stderr io.Writer) int {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "Cancelled.")
		return ExitError
	case err != nil:
		fmt.Fprintf(stderr, "Run failed: %v\n", err)
		return ExitError
	case state.Failure != "":
		return ExitError
	}
	return ExitOK
}
