package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/fatih/color"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/config"
	"github.com/frictionalfables/fable/portal"
)

var (
	logger     *slog.Logger
	configPath string
	verbose    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the fable configuration file (defaults to fable.yaml, then FABLE_CONFIG env)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	logger = slog.New(handler)

	cfg, err := loadConfig()
	if err != nil {
		fail("%s", err)
	}

	p, err := portal.New(logger, &portal.Config{
		Gateway: client.Config{
			BaseURL:      cfg.Gateway.BaseURL,
			SessionToken: cfg.Gateway.SessionToken,
			SkipVerify:   cfg.Gateway.SkipVerify,
			Timeout:      cfg.Gateway.Timeout,
			RateLimit: client.RateLimit{
				Limit: cfg.RateLimiter.Limit,
				Burst: cfg.RateLimiter.Burst,
			},
		},
		FreshFor: cfg.Cache.FreshFor,
		Retry: cache.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	})
	if err != nil {
		fail("%s", err)
	}
	defer p.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := p.Connect(connectCtx); err != nil {
		connectCancel()
		fail("gateway unreachable: %s", err)
	}
	connectCancel()

	if cfg.Gateway.SessionToken != "" {
		principal := os.Getenv("FABLE_PRINCIPAL")
		if principal == "" {
			principal = "cli"
		}
		p.Login(principal, cfg.Gateway.SessionToken)
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "ping":
		handlePing(p)
	case "books":
		handleBooks(ctx, p, cmdArgs)
	case "blog":
		handleBlog(ctx, p, cmdArgs)
	case "notes":
		handleNotes(ctx, p, cmdArgs)
	case "newcomings":
		handleNewComings(ctx, p, cmdArgs)
	case "forum":
		handleForum(ctx, p, cmdArgs)
	case "suggest":
		handleSuggest(ctx, p, cmdArgs)
	case "rate":
		handleRate(ctx, p, cmdArgs)
	case "comment":
		handleComment(ctx, p, cmdArgs)
	case "profile":
		handleProfile(ctx, p, cmdArgs)
	case "admin":
		handleAdmin(ctx, p, cmdArgs)
	case "upload":
		handleUpload(ctx, p, cmdArgs)
	case "watch":
		handleWatch(ctx, p)
	default:
		logger.Error("Unknown command", "command", command)
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		if _, err := os.Stat("fable.yaml"); err == nil {
			configPath = "fable.yaml"
		} else if envPath := os.Getenv("FABLE_CONFIG"); envPath != "" {
			configPath = envPath
		} else {
			// Fall back to environment-only configuration.
			return config.FromEnv()
		}
	}
	return config.LoadConfig(configPath)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: fablec [flags] <command> [args...]\n")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flag.PrintDefaults()

	fmt.Fprintf(os.Stderr, "\n%s\n", color.CyanString("Commands:"))
	fmt.Fprintf(os.Stderr, "  ping                                     Check the gateway\n")
	fmt.Fprintf(os.Stderr, "  books list                               Featured books in order\n")
	fmt.Fprintf(os.Stderr, "  books assets <book-id>                   Asset references for a book\n")
	fmt.Fprintf(os.Stderr, "  books add|update <id> <title> [summary]  Create or edit a book (admin)\n")
	fmt.Fprintf(os.Stderr, "  books delete <id>                        Remove a book (admin)\n")
	fmt.Fprintf(os.Stderr, "  blog list|get|add|update|delete ...      Blog posts\n")
	fmt.Fprintf(os.Stderr, "  notes list|get ...                       Character notes\n")
	fmt.Fprintf(os.Stderr, "  newcomings list|get ...                  Upcoming releases\n")
	fmt.Fprintf(os.Stderr, "  forum list|get <id>|post <title> <body>|reply <thread-id> <body>\n")
	fmt.Fprintf(os.Stderr, "  suggest list|add <text>                  Suggestions\n")
	fmt.Fprintf(os.Stderr, "  rate <book-id> <stars>                   Rate a book (1-5)\n")
	fmt.Fprintf(os.Stderr, "  comment list <book-id>|add <book-id> <text>|like <book-id> <comment-id>\n")
	fmt.Fprintf(os.Stderr, "  profile show|save <name> <email> [bio]   Caller profile\n")
	fmt.Fprintf(os.Stderr, "  admin status|login <name>|logout         Admin session\n")
	fmt.Fprintf(os.Stderr, "  upload file|cover <book-id> <path> | logo <path> | author-photo <path>\n")
	fmt.Fprintf(os.Stderr, "  watch                                    Follow content events\n")

	fmt.Fprintf(os.Stderr, "\n%s\n", color.CyanString("Configuration:"))
	fmt.Fprintf(os.Stderr, "  fablec looks for configuration in this order:\n")
	fmt.Fprintf(os.Stderr, "  1. --config flag (if specified)\n")
	fmt.Fprintf(os.Stderr, "  2. fable.yaml in current directory\n")
	fmt.Fprintf(os.Stderr, "  3. FABLE_CONFIG env var\n")
	fmt.Fprintf(os.Stderr, "  4. FABLE_* environment variables\n")
}
