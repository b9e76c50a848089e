// Command errship sends a test report through the sinks configured in the
// environment, so a deployment can verify its reporting path end to end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/opsgate/errship"
	"github.com/opsgate/errship/config"
)

func main() {
	ctx := context.Background()
	logger := initLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the structured logger.
func initLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

func run(ctx context.Context, logger *slog.Logger) error {
	message := flag.String("message", "errship test report", "message to deliver")
	cause := flag.String("cause", "", "optional cause text to attach")
	flag.Parse()

	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dispatcher, err := cfg.Build(logger)
	if err != nil {
		return err
	}
	if !dispatcher.Enabled() {
		return errors.New("no sinks configured, nothing to test")
	}

	report := errship.Report{
		Message: *message,
		Context: map[string]string{"origin": "errship-cli"},
	}
	if *cause != "" {
		report.Err = errors.New(*cause)
	}

	failed := 0
	outcomes := dispatcher.Report(ctx, report)
	for _, outcome := range outcomes {
		if outcome.Delivered() {
			logger.InfoContext(ctx, "report delivered", "sink", outcome.Sink)
			continue
		}
		failed++
		logger.WarnContext(ctx, "report delivery failed",
			"sink", outcome.Sink,
			"error", outcome.Err,
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sinks failed", failed, len(outcomes))
	}
	return nil
}
