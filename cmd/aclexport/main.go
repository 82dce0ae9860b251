package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"acl-csv-exporter/internal/config"
	"acl-csv-exporter/internal/model"
	"acl-csv-exporter/internal/parser"
	"acl-csv-exporter/pkg/services"

	"github.com/spf13/cobra"
)

var (
	aclFiles     []string
	lineProvider string
	linesDB      string
	deviceName   string
	servicesFile string
	outFile      string
	configFile   string
	logLevel     string
	logFile      string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aclexport",
		Short: "Export Cisco ACL rules to a tabular CSV",
		Long: `aclexport parses extended Cisco ACL configuration text and writes one
	structured record per rule, resolving symbolic service names to numeric
	ports along the way.`,
		RunE: run,
	}

	// Set up flags
	rootCmd.Flags().StringSliceVar(&aclFiles, "acl", nil, "ACL text file, repeatable (for 'file' provider)")
	rootCmd.Flags().StringVar(&lineProvider, "provider", "file", "ACL line provider: 'file' or 'mariadb'")
	rootCmd.Flags().StringVar(&linesDB, "db", "", "Database connection string (for 'mariadb' provider)")
	rootCmd.Flags().StringVar(&deviceName, "device", "", "Device name to filter DB lines (adds WHERE device_name = '...')")
	rootCmd.Flags().StringVar(&servicesFile, "services", "", "IANA service names CSV (default: embedded registry)")
	rootCmd.Flags().StringVar(&outFile, "out", "parsed_acl.csv", "Output CSV file")
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML run configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	rootCmd.AddCommand(newPrintCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type aclSource struct {
	name  string
	lines []string
}

func run(cmd *cobra.Command, args []string) error {
	// --- 1. Setup Logging ---
	logger := setupLogger(logLevel, logFile)
	slog.SetDefault(logger)

	slog.Info("Starting ACL export", "version", "1.0")
	startTime := time.Now()

	// --- 2. Load Configuration ---
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			slog.Error("Failed to load configuration", "path", configFile, "error", err)
			return err
		}
		cfg = loaded
	}

	// --- 3. Build Service Name Table ---
	table, err := loadTable(cfg, servicesFile)
	if err != nil {
		slog.Error("Failed to load service name table", "error", err)
		return err
	}
	slog.Info("Service name table ready", "names", table.Len())

	// --- 4. Load ACL Sources ---
	sources, err := loadSources(lineProvider, aclFiles, linesDB, deviceName)
	if err != nil {
		slog.Error("Failed to load ACL sources", "provider", lineProvider, "error", err)
		return err
	}
	slog.Info("Loaded ACL sources", "provider", lineProvider, "count", len(sources))

	// --- 5. Parse Sources Concurrently, Write Results ---
	// Each source gets its own goroutine and its own ParserContext (inside
	// ParseACL); rules within one source stay strictly in input order. The
	// immutable table is shared across all of them.
	results := make(chan model.ParsedRule, 64)
	parseErrs := make(chan error, len(sources))

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src aclSource) {
			defer wg.Done()
			rules, errs := parser.ParseACL(src.lines, table)
			for _, e := range errs {
				if cfg.OnResolveError == config.PolicyAbort {
					parseErrs <- fmt.Errorf("%s: %w", src.name, e)
					return
				}
				slog.Warn("Skipping unresolvable rule", "source", src.name, "rule", e.Seq, "line", e.Line, "error", e.Err)
			}
			for _, rule := range rules {
				results <- rule
			}
			slog.Debug("Source parsed", "source", src.name, "rules", len(rules))
		}(src)
	}

	var writerWg sync.WaitGroup
	writerWg.Add(1)
	var written int
	var writeErr error
	go func() {
		defer writerWg.Done()
		written, writeErr = writeCSV(outFile, results)
	}()

	wg.Wait()
	close(results)
	writerWg.Wait()
	close(parseErrs)

	for err := range parseErrs {
		slog.Error("Aborting: rule failed service resolution", "error", err)
		return err
	}
	if writeErr != nil {
		slog.Error("Failed to write output", "path", outFile, "error", writeErr)
		return writeErr
	}

	slog.Info("Export complete", "rules", written, "output_file", outFile, "duration", time.Since(startTime))
	return nil
}

func loadTable(cfg *config.Config, override string) (*services.Table, error) {
	path := cfg.ServicesFile
	if override != "" {
		path = override
	}
	if path == "" {
		return services.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	policy := services.SkipMalformed
	if cfg.OnMalformedRow == config.PolicyAbort {
		policy = services.AbortOnMalformed
	}
	return services.LoadIANA(f, cfg.Delimiter(), policy)
}

func loadSources(provider string, files []string, dsn, device string) ([]aclSource, error) {
	switch provider {
	case "file":
		if len(files) == 0 {
			return nil, fmt.Errorf("at least one --acl file must be provided for file provider")
		}
		var sources []aclSource
		for _, path := range files {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			lines, err := parser.ReadLines(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			sources = append(sources, aclSource{name: path, lines: lines})
		}
		return sources, nil
	case "mariadb":
		if dsn == "" {
			return nil, fmt.Errorf("database connection string must be provided for mariadb provider")
		}
		p, err := parser.NewMariaDBLineProvider(dsn, device)
		if err != nil {
			return nil, err
		}
		defer p.Close()
		lines, err := p.Lines()
		if err != nil {
			return nil, err
		}
		name := "mariadb"
		if device != "" {
			name = device
		}
		return []aclSource{{name: name, lines: lines}}, nil
	default:
		return nil, fmt.Errorf("unknown line provider: %s", provider)
	}
}

func writeCSV(path string, results <-chan model.ParsedRule) (int, error) {
	drain := func() {
		for range results {
		}
	}

	f, err := os.Create(path)
	if err != nil {
		drain() // keep producers from blocking
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(model.CSVHeader()); err != nil {
		drain()
		return 0, err
	}
	written := 0
	for rule := range results {
		if err := w.Write(rule.Record()); err != nil {
			drain()
			return written, err
		}
		written++
	}
	w.Flush()
	return written, w.Error()
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// We don't log an error here because the logger isn't set up yet.
		// It will just fall back to stderr.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}
