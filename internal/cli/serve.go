package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"storywriter/internal/config"
	"storywriter/internal/library"
	"storywriter/internal/script"
	"storywriter/internal/webserver"
)

// serveStories is a test seam for running the web server.
var serveStories = webserver.Serve

// runServe builds the handler for the serve command.
func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", "", "Path to config file (default: search for .storywriter.yml)")
		addr := flags.String("addr", "", "Address to listen on (default: server.addr)")
		assetsBaseURL := flags.String("assets-base-url", "", "Base URL for page assets")
		verbose := flags.Bool("verbose", false, "Enable debug logging")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}

		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		if value := strings.TrimSpace(*addr); value != "" {
			cfg.Server.Addr = value
		}
		if value := strings.TrimSpace(*assetsBaseURL); value != "" {
			cfg.Server.AssetsBaseURL = value
		}

		ctx, stop := commandContext(stderr, *verbose)
		defer stop()

		launcher, err := script.New(scriptConfig(cfg))
		if err != nil {
			fmt.Fprintf(stderr, "Invalid script config: %v\n", err)
			return ExitError
		}
		store, err := openLibrary(ctx, cfg.Library.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open story library: %v\n", err)
			return ExitError
		}
		defer store.Close()

		serverCfg := webserver.Config{
			Addr:              cfg.Server.Addr,
			AssetsBaseURL:     cfg.Server.AssetsBaseURL,
			MaxPages:          cfg.Server.MaxPages,
			MaxConcurrentRuns: cfg.Server.MaxConcurrentRuns,
			StoriesPath:       cfg.Stories.Path,
			Runner:            launcher,
			Library:           store,
		}
		fmt.Fprintf(stdout, "Serving story writer at http://%s\n", serverCfg.Addr)
		if err := serveStories(ctx, serverCfg); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}

// scriptConfig maps the config file section to the launcher settings.
func scriptConfig(cfg config.Config) script.Config {
	return script.Config{
		Command: cfg.Script.Command,
		Args:    cfg.Script.Args,
		File:    cfg.Script.File,
		Dir:     cfg.Script.Dir,
		Timeout: cfg.Script.Timeout,
	}
}

// openLibrary opens the story library, creating its folder when needed.
func openLibrary(ctx context.Context, path string) (*library.Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create library dir: %w", err)
		}
	}
	return library.Open(ctx, path)
}
