// Command keystore-converter batch-decrypts EIP-2335 BLS12-381
// validator keystores and re-encrypts them under freshly drawn
// salts, IVs, and UUIDs into a destination directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"

	"keystore-converter/internal/cli"
	"keystore-converter/internal/config"
	kerrors "keystore-converter/pkg/errors"
)

// Version information, set during build via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := setupGracefulShutdown()
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	app := cli.NewApplication(cfg, Version, GitCommit, BuildTime)

	if err := fang.Execute(
		ctx,
		app.GetRootCommand(),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		handleError(err)
		os.Exit(1)
	}
}

func setupGracefulShutdown() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nreceived interrupt signal, shutting down gracefully...\n")
		cancel()
	}()

	return ctx, cancel
}

// handleError prints a ConversionError's kind and pk (never its
// cause's secret-bearing context) alongside any other error from the
// CLI layer, such as validation or usage errors.
func handleError(err error) {
	if ce, ok := err.(*kerrors.ConversionError); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", ce.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
