package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"yashubustudio/surveyencoder/encoder"
)

type cliOptions struct {
	configPath   string
	inputPath    string
	outputPath   string
	outputDir    string
	task         string
	strict       bool
	requireAll   bool
	genderCoding string
	withTarget   bool
	predict      bool
	verbose      bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "survey-encoder-cli: %v\n", err)
		os.Exit(2)
	}
	logger := newLogger(opts.verbose)
	defer logger.Sync()
	if err := run(opts, logger); err != nil {
		logger.Fatal("survey-encoder-cli failed", zap.Error(err))
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json or config.yaml (default: ./config.json)")
	flag.StringVar(&opts.inputPath, "input", "", "CSV/TSV survey export to encode")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write features (default uses --output-dir/features_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where feature CSVs are written when --output is omitted")
	flag.StringVar(&opts.task, "task", "", "classification or regression (default from config)")
	flag.BoolVar(&opts.strict, "strict", false, "Fail on unrecognised categorical answers instead of defaulting them")
	flag.BoolVar(&opts.requireAll, "require-all", false, "Fail when a feature column is missing from the input")
	flag.StringVar(&opts.genderCoding, "gender-coding", "", "fixed or batch (default from config)")
	flag.BoolVar(&opts.withTarget, "with-target", false, "Append the task's target column (treatment or Age)")
	flag.BoolVar(&opts.predict, "predict", false, "Score the features with the configured ONNX model and append predictions")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input FILE [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)
	opts.task = strings.TrimSpace(opts.task)
	opts.genderCoding = strings.TrimSpace(opts.genderCoding)

	if opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --input file")
	}
	return opts, nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func run(opts cliOptions, logger *zap.Logger) error {
	cfg, err := encoder.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)
	if cfg.Aliases != nil {
		encoder.SetColumnAliases(cfg.Aliases)
	}

	svc := encoder.NewService(cfg, logger)
	defer svc.Close()
	if opts.predict {
		if err := svc.LoadScorers(); err != nil {
			return err
		}
	}

	responses, err := encoder.ParseResponses(opts.inputPath)
	if err != nil {
		return fmt.Errorf("read survey responses: %w", err)
	}
	if len(responses) == 0 {
		return errors.New("input file does not contain any responses")
	}

	ctx := context.Background()
	var table encoder.FeatureTable
	var report encoder.Report
	var extras []encoder.ExtraColumn
	if opts.predict {
		pred, err := svc.Predict(ctx, cfg.Task, responses)
		if err != nil {
			return err
		}
		table, report = pred.Features, pred.Report
		extras = append(extras, encoder.ExtraColumn{Name: "prediction", Values: pred.Values})
		if pred.Confidence != nil {
			extras = append(extras, encoder.ExtraColumn{Name: "confidence", Values: pred.Confidence})
		}
	} else {
		table, report, err = svc.Encode(ctx, cfg.Task, responses)
		if err != nil {
			return err
		}
	}
	if opts.withTarget {
		enc, err := svc.Encoder(cfg.Task)
		if err != nil {
			return err
		}
		target, err := enc.Target(responses)
		if err != nil {
			return fmt.Errorf("extract target: %w", err)
		}
		extras = append(extras, encoder.ExtraColumn{Name: targetColumn(cfg.Task), Values: target})
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeFeatures(outputPath, table, extras); err != nil {
		return err
	}
	logger.Info("features written",
		zap.String("path", outputPath),
		zap.String("batch_id", report.BatchID),
		zap.Int("rows", table.Len()),
		zap.Strings("columns", table.Columns))
	return nil
}

func applyOverrides(cfg *encoder.Config, opts cliOptions) {
	if opts.task != "" {
		cfg.Task = encoder.Task(opts.task)
	}
	if opts.strict {
		cfg.Options.Strict = true
	}
	if opts.requireAll {
		cfg.Options.RequireAllFields = true
	}
	if opts.genderCoding != "" {
		cfg.Options.GenderCoding = encoder.GenderCoding(opts.genderCoding)
	}
	cfg.ApplyDefaults()
}

func targetColumn(task encoder.Task) string {
	if task == encoder.TaskRegression {
		return encoder.FieldAge
	}
	return encoder.FieldTreatment
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("features_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeFeatures(path string, table encoder.FeatureTable, extras []encoder.ExtraColumn) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feature file: %w", err)
	}
	defer f.Close()
	if err := encoder.WriteFeatureCSV(f, table, extras...); err != nil {
		return err
	}
	return f.Close()
}
