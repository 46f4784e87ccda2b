package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/Caia-Tech/caia-extractor/internal/ui"
	"github.com/Caia-Tech/caia-extractor/pkg/config"
	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/Caia-Tech/caia-extractor/pkg/transport"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	engine     string
	language   string
	send       bool
	quiet      bool
	noColor    bool
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract text from images, PDFs, DOCX and text files",
		Long: `Extract reads each file, routes it to the matching extractor and prints
the recovered text. Images go through Tesseract OCR; the engine is loaded
once and shared by every image on the command line.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, stdout, stderr)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "config file path (.json, .yaml)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "OCR engine: cli or gosseract")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "OCR language, e.g. eng or eng+deu")
	cmd.Flags().BoolVar(&opts.send, "send", false, "forward each result to the configured API")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide progress output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func run(ctx context.Context, opts *options, paths []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ui.SetColor(!opts.noColor)

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return reportFatal(stderr, "config", err)
	}
	if opts.engine != "" {
		cfg.Extraction.OCREngine = opts.engine
	}
	if opts.language != "" {
		cfg.Extraction.OCRLanguage = opts.language
	}
	cfg.Logging.Format = "pretty"
	cfg.Logging.Level = "warn"
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return reportFatal(stderr, "config", err)
	}
	if err := logging.SetupLogger(cfg.Logging); err != nil {
		return reportFatal(stderr, "logging", err)
	}

	engine, err := extractor.NewEngine(cfg.Extraction, extractor.EngineOptions{})
	if err != nil {
		return reportFatal(stderr, "engine", err)
	}

	var sender *transport.Client
	if opts.send {
		sender = transport.NewClient(cfg.API, &http.Client{})
	}

	failed := 0
	for _, path := range paths {
		if len(paths) > 1 {
			ui.Header(stdout, path)
		}
		if err := extractOne(ctx, engine.Service, sender, path, opts.quiet, stdout, stderr); err != nil {
			failed++
		}
		if ctx.Err() != nil {
			break
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func extractOne(ctx context.Context, service *extractor.Service, sender *transport.Client, path string, quiet bool, stdout, stderr io.Writer) error {
	name := filepath.Base(path)

	file, err := extractor.OpenFile(path)
	if err != nil {
		ui.Error(stderr, name, err)
		return err
	}

	progress := ui.NewFileProgress(stderr, name, quiet)
	text, err := service.Extract(ctx, file, progress.Report)
	progress.Done()
	if err != nil {
		ui.Error(stderr, name, err)
		return err
	}

	fmt.Fprintln(stdout, text)

	if sender == nil {
		return nil
	}
	result, err := sender.Send(ctx, transport.PreparePayload(file, text))
	switch {
	case err != nil:
		// The text is already printed; a failed send is reported, not fatal.
		ui.Warning(stderr, "%s: %s", name, ui.UserMessage(err))
	case result.Disabled:
		ui.Warning(stderr, "%s: %s", name, result.Message)
	case !quiet:
		ui.Success(stderr, "%s sent to API", name)
	}
	return nil
}

func reportFatal(w io.Writer, stage string, err error) error {
	ui.Error(w, stage, err)
	return err
}
