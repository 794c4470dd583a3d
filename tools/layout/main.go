package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[layout] error: %s\n", err.Error())
	os.Exit(1)
}

func run(cfg *config, logger *zap.Logger) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	rep, err := buildReport()
	if err != nil {
		return err
	}
	logger.Debug("built descriptor layout",
		zap.Int("descriptors", len(rep.Descriptors)),
		zap.String("star", rep.Syscall.Star),
	)

	var w io.Writer = os.Stdout
	if cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := encodeReport(w, cfg.Format, rep); err != nil {
		return err
	}

	logger.Info("layout report written", zap.String("format", cfg.Format), zap.String("output", cfg.Output))
	return nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		exit(err)
	}

	flag.StringVar(&cfg.Format, "format", cfg.Format, "the output format (yaml, json or toml)")
	flag.StringVar(&cfg.Output, "out", cfg.Output, "a file to write the report to or - to output to STDOUT")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "layout: dump the descriptor table, syscall MSR and context layout used by the kernel\n\n")
		fmt.Fprint(os.Stderr, "Usage: layout [options]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := newLogger(cfg)
	if err != nil {
		exit(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger.Named("layout")); err != nil {
		exit(err)
	}
}
