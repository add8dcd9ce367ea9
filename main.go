package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/statement-analyzer/internal/api"
	"github.com/insightdelivered/statement-analyzer/internal/config"
	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/observability"
	"github.com/insightdelivered/statement-analyzer/internal/parser"
	"github.com/insightdelivered/statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/statement-analyzer/internal/service"
	"github.com/insightdelivered/statement-analyzer/internal/store"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
	"github.com/insightdelivered/statement-analyzer/internal/writer"
)

const version = "2.0.0"

// maxConcurrentFiles bounds how many input files are analyzed at once.
const maxConcurrentFiles = 4

func main() {
	// CLI flags
	kindFlag := flag.String("kind", "", "Document kind: tabular-document, delimited-text, spreadsheet (inferred from extension if omitted)")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to input filename with .csv extension)")
	headerFlag := flag.Bool("header", true, "Include metadata header rows in CSV")
	jsonFlag := flag.Bool("json", false, "Print the full analysis as JSON instead of a summary")
	yearFlag := flag.Int("year", 0, "Year assumed for dates without one (defaults to the current year)")
	tablesFlag := flag.String("tables", "", "YAML file with keyword tables (overrides ANALYZER_TABLES_FILE)")
	serveFlag := flag.Bool("serve", false, "Start the HTTP API instead of processing files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Analyzer
by Insight Delivered (QEA AutoLens)

Extracts transactions from credit-card statements, current-account
ledgers and exported spreadsheets, categorizes them and reports
totals, trends and savings recommendations.

Usage:
  statement-analyzer [flags] <statement> [statement2 ...]
  statement-analyzer --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Analyze a statement and write statement.csv
  statement-analyzer statement.pdf

  # Pasted text saved to a file, explicit kind
  statement-analyzer --kind=tabular-document --year=2025 pasted.txt

  # Full JSON analysis of several exports
  statement-analyzer --json jan.csv feb.xls

  # Run the web API (port from ANALYZER_PORT, default 8080)
  statement-analyzer --serve

Document kinds:
  tabular-document  - PDF or plain text with one transaction per line
  delimited-text    - CSV/TSV export with a header row
  spreadsheet       - XLS export with a header row
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-analyzer v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || (!*serveFlag && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}
	if *tablesFlag != "" {
		cfg.TablesFile = *tablesFlag
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	var kind models.DocumentKind
	if *kindFlag != "" {
		k, ok := models.ParseKind(strings.ToLower(*kindFlag))
		if !ok {
			fatalf("Unknown document kind %q. Supported: tabular-document, delimited-text, spreadsheet\n", *kindFlag)
		}
		kind = k
	}

	t := tables.Default()
	if cfg.TablesFile != "" {
		t, err = tables.Load(cfg.TablesFile)
		if err != nil {
			fatalf("Failed to load keyword tables: %v\n", err)
		}
	}

	parserOpts := []parser.Option{parser.WithLogger(logger)}
	if *yearFlag > 0 {
		parserOpts = append(parserOpts, parser.WithYear(*yearFlag))
	}
	p := pipeline.New(t, pipeline.WithLogger(logger), pipeline.WithParserOptions(parserOpts...))

	results := store.New[*service.Stored](cfg.ResultTTL)
	defer results.Close()
	metrics := observability.NewMetrics()
	svc := service.NewAnalyzer(p, results, metrics, logger)

	if *serveFlag {
		if err := serve(cfg, svc, metrics, logger); err != nil {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("--output can only be used with a single input file\n")
	}

	reports, err := processFiles(context.Background(), svc, inputFiles, kind)
	failed := false
	for _, r := range reports {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", r.path, r.err)
			failed = true
			continue
		}
		if *jsonFlag {
			if err := printJSON(r.stored); err != nil {
				fatalf("JSON output failed: %v\n", err)
			}
			continue
		}
		if err := writeReport(r, *outputFlag, *headerFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", r.path, err)
			failed = true
		}
	}
	if err != nil || failed {
		os.Exit(1)
	}
}

// report is the outcome of analyzing one input file.
type report struct {
	path   string
	stored *service.Stored
	diag   *models.Diagnostics
	err    error
}

// processFiles analyzes the inputs concurrently. Reports keep input order;
// per-file failures are recorded in the report rather than aborting others.
func processFiles(ctx context.Context, svc *service.Analyzer, paths []string, kind models.DocumentKind) ([]report, error) {
	reports := make([]report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	for i, path := range paths {
		g.Go(func() error {
			reports[i].path = path
			data, err := os.ReadFile(path)
			if err != nil {
				reports[i].err = fmt.Errorf("input file not readable: %w", err)
				return nil
			}
			reports[i].stored, reports[i].diag, reports[i].err = svc.AnalyzeUpload(ctx, service.Upload{
				Kind:     kind,
				Filename: filepath.Base(path),
				Data:     data,
			})
			return ctx.Err()
		})
	}
	return reports, g.Wait()
}

func writeReport(r report, outputPath string, includeHeader bool) error {
	stored := r.stored
	res := stored.Result

	fmt.Printf("Processing: %s\n", r.path)
	fmt.Printf("  Kind: %s, dialect: %s\n", stored.Kind, stored.Dialect)
	fmt.Printf("  Found %d transaction(s)\n", len(stored.Transactions))
	if r.diag != nil {
		if n := len(r.diag.Unmatched); n > 0 {
			fmt.Printf("  Warning: %d line(s) did not match any known layout\n", n)
		}
		if n := r.diag.RejectedTotal(); n > 0 {
			fmt.Printf("  Warning: %d record(s) rejected\n", n)
		}
	}

	// Determine output path
	outPath := outputPath
	if outPath == "" {
		ext := filepath.Ext(r.path)
		outPath = strings.TrimSuffix(r.path, ext) + ".csv"
		if strings.EqualFold(ext, ".csv") {
			outPath = strings.TrimSuffix(r.path, ext) + ".analysis.csv"
		}
	}

	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	ex := writer.Export{Dialect: stored.Dialect, Result: res, Transactions: stored.Transactions}
	if err := w.WriteToFile(outPath, ex); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)

	// Print summary
	if !res.DateRange.Start.IsZero() {
		fmt.Printf("  Period: %s to %s\n", res.DateRange.Start.Format("2006-01-02"), res.DateRange.End.Format("2006-01-02"))
	}
	fmt.Printf("  Income: %.2f  Expenses: %.2f  Savings: %.2f (%.2f%%)\n",
		res.TotalIncome, res.TotalExpenses, res.TotalSavings, res.SavingsRate)
	for _, c := range res.CategoryBreakdown {
		fmt.Printf("    %-14s %12.2f  %5.1f%%  (%d)\n", c.Name, c.TotalAmount, c.PercentageOfExpenses, c.TransactionCount)
	}
	for _, rec := range res.Recommendations {
		fmt.Printf("  [%s] %s\n", rec.Priority, rec.Title)
	}

	fmt.Println("  Done.")
	return nil
}

func printJSON(stored *service.Stored) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stored)
}

func serve(cfg *config.Config, svc *service.Analyzer, metrics *observability.Metrics, logger *zap.Logger) error {
	h := &api.Handler{
		Service:        svc,
		Metrics:        metrics,
		Logger:         logger,
		Version:        version,
		StaticDir:      cfg.StaticDir,
		MaxUploadBytes: int64(cfg.BodyLimitMB) << 20,
	}
	app := h.NewApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr()), zap.String("version", version))
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
