package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/cli"
	"github.com/totalquality/qassist/internal/models"
	"github.com/totalquality/qassist/pkg/utils"
)

func runSearch(args []string, stdout io.Writer) error {
	fs := newFlagSet("search", os.Stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	fuzzy := fs.Bool("fuzzy", true, "retry with typo tolerance when nothing matches")
	formatFlag := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	query := buildQuery(fs.Args())
	if query == "" {
		return fmt.Errorf("usage: qassist search [flags] <query>")
	}
	format, err := cli.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewClientLogger(cfg.Debug || *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	response, err := comps.Engine.Query(ctx, &models.SearchQuery{Query: query, Fuzzy: *fuzzy})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return cli.WriteSearchResults(stdout, response, format)
}

func runPrograms(args []string, stdout io.Writer) error {
	fs := newFlagSet("programs", os.Stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	credit := fs.Int("credit", 0, "credit score")
	amount := fs.Float64("amount", 0, "loan amount")
	occupancy := fs.String("occupancy", "", "occupancy filter, e.g. investor")
	txType := fs.String("type", string(models.TransactionPurchase), "transaction type: purchase, rateTerm or cashOut")
	formatFlag := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	query := models.ProgramQuery{
		CreditScore:     *credit,
		LoanAmount:      *amount,
		Occupancy:       *occupancy,
		TransactionType: models.TransactionType(*txType),
	}
	if err := query.Validate(); err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	comps, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer comps.Close()

	programs := comps.Knowledge.Current().FindPrograms(query)
	return cli.WritePrograms(stdout, query, programs, format)
}

func runPrompt(args []string, stdout io.Writer) error {
	fs := newFlagSet("prompt", os.Stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	contextOnly := fs.Bool("context", false, "print only the retrieved guideline context")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	query := buildQuery(fs.Args())

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	comps, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer comps.Close()

	if *contextOnly {
		_, err = fmt.Fprintln(stdout, comps.Prompts.ContextForQuery(query))
		return err
	}
	systemPrompt, _ := comps.Prompts.ForQuery(query)
	_, err = fmt.Fprintln(stdout, systemPrompt)
	return err
}
