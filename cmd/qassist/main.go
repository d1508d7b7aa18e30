// Package main is the qassist CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/config"
	"github.com/totalquality/qassist/internal/keyword"
	"github.com/totalquality/qassist/internal/knowledge"
	"github.com/totalquality/qassist/internal/prompt"
	"github.com/totalquality/qassist/internal/search"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/qassist/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and when neither file exists the built-in
// defaults are used. Returns the config and the path that was actually loaded
// ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// components is the knowledge side of the app shared by server and CLI commands.
type components struct {
	Knowledge *knowledge.Reloader
	Fuzzy     *keyword.BleveIndex
	Engine    *search.Engine
	Prompts   *prompt.Composer
}

func (c *components) Close() {
	if c.Fuzzy != nil {
		_ = c.Fuzzy.Close()
	}
}

// initializeComponents loads knowledge, builds the fuzzy index and keeps it in
// step with knowledge reloads.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	kb, err := knowledge.NewReloader(knowledge.Options{
		Path:         cfg.Knowledge.Path,
		MatricesPath: cfg.Knowledge.MatricesPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}
	fuzzy, err := keyword.NewBleveIndex()
	if err != nil {
		return nil, fmt.Errorf("create fuzzy index: %w", err)
	}
	engine := search.NewEngine(kb, nil, search.WithFuzzyIndex(fuzzy), search.WithLogger(logger))
	if err := engine.RebuildFuzzy(ctx); err != nil {
		_ = fuzzy.Close()
		return nil, fmt.Errorf("build fuzzy index: %w", err)
	}
	kb.OnReload(func(*knowledge.Store) {
		if err := engine.RebuildFuzzy(context.Background()); err != nil {
			logger.Warn("fuzzy index rebuild failed", zap.Error(err))
		}
	})
	composer := prompt.NewComposer(prompt.ConfigFrom(cfg.Prompt), kb, engine)
	return &components{Knowledge: kb, Fuzzy: fuzzy, Engine: engine, Prompts: composer}, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]
	var err error
	switch command {
	case "server":
		err = runServer(args)
	case "search":
		err = runSearch(args, os.Stdout)
	case "programs":
		err = runPrograms(args, os.Stdout)
	case "prompt":
		err = runPrompt(args, os.Stdout)
	case "chat":
		err = runChat(args)
	case "conversations":
		err = runConversations(args, os.Stdout)
	case "kb":
		err = runKB(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("qassist version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// buildQuery joins positional args so multi-word queries work with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that follow positional args to the front, since the
// flag package stops at the first positional.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `qassist - Q, the mortgage broker assistant

Usage:
  qassist server [flags]                 Start the HTTP server and chat relay
  qassist search [flags] <query>         Search the knowledge base
  qassist programs [flags]               Match loan programs to a borrower scenario
  qassist prompt [flags] <query>         Print the system prompt built for a question
  qassist chat [flags]                   Chat with Q in the terminal
  qassist conversations [flags]          List saved conversations
  qassist kb import [flags] <file>       Turn a guideline document into a knowledge entry
  qassist version                        Show version
  qassist help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/qassist/config.yaml,
                     then ./config.yaml, then built-in defaults)
  --debug            Enable debug logging

Search Flags:
  --fuzzy            Retry with typo tolerance when nothing matches (default: true)
  --format string    Output format: text or json (default: text)

Programs Flags:
  --credit int       Credit score (required)
  --amount float     Loan amount (required)
  --occupancy string Occupancy filter, e.g. investor or primary
  --type string      purchase, rateTerm or cashOut (default: purchase)
  --format string    Output format: text or json

Prompt Flags:
  --context          Print only the retrieved guideline context

Chat Flags:
  --server string    Server URL (default from config client.server_url)
  --plain            Stream raw text instead of rendering markdown

KB Import Flags:
  --id string        Entry id (required)
  --title string     Entry title (default: file name)
  --category string  Category
  --subcategory string Subcategory
  --keywords string  Comma-separated keywords
  --priority int     Priority, usually 1-10 (default: 5)
  --out string       Write YAML to a file instead of stdout

Examples:
  qassist server
  qassist search "dscr requirements"
  qassist search --format json escrw
  qassist programs --credit 720 --amount 500000 --occupancy investor --type cashOut
  qassist prompt "cash out reserves"
  qassist chat
  qassist kb import --id escrow-002 --category Escrow --keywords "escrow,waiver" waiver.pdf`)
}
