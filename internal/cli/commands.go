// Package cli wires the keystore converter's command-line surface:
// flag parsing, path validation, naming-mode resolution, and the
// worker pool that drives the EIP-2335 conversion pipeline over every
// discovered pair.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"keystore-converter/internal/config"
	"keystore-converter/internal/keystore"
	"keystore-converter/internal/naming"
	"keystore-converter/internal/pathvalidate"
	"keystore-converter/internal/progress"
	"keystore-converter/internal/worker"
	kerrors "keystore-converter/pkg/errors"
	"keystore-converter/pkg/logging"
	"keystore-converter/pkg/utils"
)

// Application wires cobra's command tree to the converter's config
// and drives a single conversion run.
type Application struct {
	config    *config.Config
	rootCmd   *cobra.Command
	version   string
	gitCommit string
	buildTime string
}

// NewApplication creates a new CLI application.
func NewApplication(cfg *config.Config, version, gitCommit, buildTime string) *Application {
	app := &Application{
		config:    cfg,
		version:   version,
		gitCommit: gitCommit,
		buildTime: buildTime,
	}

	app.setupCommands()
	return app
}

// GetRootCommand returns the root cobra command, for fang.Execute.
func (app *Application) GetRootCommand() *cobra.Command {
	return app.rootCmd
}

// setupCommands builds the root command and its flags, per spec.md
// §6's command-line surface.
func (app *Application) setupCommands() {
	app.rootCmd = &cobra.Command{
		Use:   "keystore-converter",
		Short: "Batch re-encrypt EIP-2335 BLS12-381 validator keystores",
		Long: `keystore-converter reads a directory of EIP-2335 keystores and their
matching password files, verifies each password against the keystore's
embedded checksum, decrypts the wrapped BLS12-381 secret key, and writes
freshly re-encrypted v4 keystores into a destination directory. It
understands two on-disk naming conventions used in Ethereum staking:
web3signer (one <pk>.json file per validator) and nimbus (one
<pk>/keystore.json subdirectory per validator).`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", app.version, app.gitCommit, app.buildTime),
		RunE:    app.runConvert,
	}
	app.rootCmd.SetVersionTemplate("{{.Version}}\n")

	app.addFlags()
}

func (app *Application) addFlags() {
	flags := app.rootCmd.Flags()

	flags.StringP("src", "s", "", "Source directory of keystores (required)")
	flags.StringP("dest", "d", "", "Destination directory for re-encrypted keystores (required)")
	flags.StringP("password_dir", "w", "", "Directory of password files (required)")
	flags.StringP("mode", "m", "WEB3SIGNER", "Naming convention: WEB3SIGNER or NIMBUS")

	flags.IntP("c", "c", 1, "PBKDF2 iteration count (testing default; production should override)")
	flags.IntP("n", "n", 2, "scrypt N (testing default; production should override)")
	flags.IntP("p", "p", 1, "scrypt p")
	flags.IntP("r", "r", 8, "scrypt r")

	flags.Int("threads", 0, "Worker concurrency (0 = number of CPUs)")

	flags.String("log-level", "info", "Logging level (error, warn, info, debug)")
	flags.Bool("no-logging", false, "Disable logging completely")
	flags.String("log-file", "", "Log file path (default: stdout)")
	flags.String("log-format", "text", "Log format (text, json, structured)")

	flags.BoolP("version", "v", false, "Print version and exit")

	// src/dest/password_dir are required, but only once --version and
	// --help have had a chance to short-circuit; see runConvert.
}

// parseLoggingFlags applies the command's logging flags onto
// app.config.Logging. --no-logging takes priority over every other
// logging flag, matching a user's intent to silence the run outright.
func (app *Application) parseLoggingFlags(cmd *cobra.Command) error {
	noLogging, err := cmd.Flags().GetBool("no-logging")
	if err != nil {
		return err
	}
	if noLogging {
		app.config.Logging.Enabled = false
		return nil
	}
	app.config.Logging.Enabled = true

	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	if _, err := logging.ParseLogLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	app.config.Logging.Level = level

	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "text", "json", "structured":
	default:
		return fmt.Errorf("invalid log format %q (valid: text, json, structured)", format)
	}
	app.config.Logging.Format = format

	file, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}
	app.config.Logging.OutputFile = file

	return nil
}

// runConvert is the root command's RunE: validate paths, resolve
// pairs under the chosen naming mode, convert each pair through the
// worker pool, and report a summary. It returns a non-nil error (and
// thus a non-zero exit code) if at least one pair failed.
func (app *Application) runConvert(cmd *cobra.Command, args []string) error {
	if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
		fmt.Fprintln(cmd.OutOrStdout(), app.rootCmd.Version)
		return nil
	}

	src, _ := cmd.Flags().GetString("src")
	dest, _ := cmd.Flags().GetString("dest")
	passwordDir, _ := cmd.Flags().GetString("password_dir")
	switch {
	case src == "":
		return fmt.Errorf("required flag(s) \"src\" not set")
	case dest == "":
		return fmt.Errorf("required flag(s) \"dest\" not set")
	case passwordDir == "":
		return fmt.Errorf("required flag(s) \"password_dir\" not set")
	}

	if err := app.parseLoggingFlags(cmd); err != nil {
		return err
	}

	logger, err := logging.NewSecureLoggerFromConfig(
		app.config.Logging.Enabled, app.config.Logging.Level, app.config.Logging.Format, app.config.Logging.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	modeFlag, _ := cmd.Flags().GetString("mode")
	c, _ := cmd.Flags().GetInt("c")
	n, _ := cmd.Flags().GetInt("n")
	p, _ := cmd.Flags().GetInt("p")
	r, _ := cmd.Flags().GetInt("r")
	threads, _ := cmd.Flags().GetInt("threads")

	// -c/-n/-p/-r declare spec.md's weak testing values as their flag
	// defaults, but a flag not passed explicitly takes its value from
	// app.config.Conversion instead (DefaultConfig's values, which a
	// KEYSTORE_CONVERTER_CONVERSION_* env var overrides); an explicit
	// -n on the command line always wins over config.
	if !cmd.Flags().Changed("c") {
		c = app.config.Conversion.Pbkdf2Count
	}
	if !cmd.Flags().Changed("n") {
		n = app.config.Conversion.ScryptN
	}
	if !cmd.Flags().Changed("p") {
		p = app.config.Conversion.ScryptP
	}
	if !cmd.Flags().Changed("r") {
		r = app.config.Conversion.ScryptR
	}

	mode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}

	logger.LogOperationStart("validate_paths", map[string]interface{}{
		"src": src, "dest": dest, "password_dir": passwordDir, "mode": string(mode),
	})
	if err := pathvalidate.Validate(pathvalidate.Paths{Src: src, PasswordDir: passwordDir, Dest: dest}); err != nil {
		logger.LogError("validate_paths", err, nil)
		return err
	}

	pairs, resolutionFailures, err := naming.Resolve(src, passwordDir, mode)
	if err != nil {
		logger.LogError("resolve_pairs", err, nil)
		return err
	}
	totalCandidates := len(pairs) + len(resolutionFailures)
	if totalCandidates == 0 {
		logger.Warn("no keystore/password pairs found", logging.NewLogField("src", src))
		fmt.Fprintln(cmd.OutOrStdout(), "no keystore/password pairs found; nothing to do")
		return nil
	}

	runCfg := keystore.RunConfig{
		KDFFunction: keystore.KdfFunction(strings.ToLower(app.config.Conversion.KDFFunction)),
		Pbkdf2Count: c,
		ScryptN:     n,
		ScryptR:     r,
		ScryptP:     p,
		DKLen:       app.config.Conversion.DKLen,
	}
	if runCfg.DKLen == 0 {
		runCfg.DKLen = 32
	}

	threadCount := threads
	if threadCount <= 0 {
		threadCount = app.config.GetEffectiveThreadCount()
	}

	interactive := app.config.IsTUIEnabled() && term.IsTerminal(int(os.Stdout.Fd()))
	mgr := progress.NewManager(totalCandidates, interactive)
	mgr.Start()

	// Candidates whose password or keystore counterpart was missing
	// never reach the pipeline; they are reported as failed pairs
	// alongside any pipeline-stage failure, per the "one bad pair
	// doesn't abort the run" propagation policy.
	var failed []worker.Result
	for _, rf := range resolutionFailures {
		logger.LogPairFailed(rf.PK, kerrors.KindOf(rf.Err))
		mgr.PairFailed(rf.PK, kerrors.KindOf(rf.Err))
		failed = append(failed, worker.Result{PK: rf.PK, Err: rf.Err})
	}

	pool := worker.New(threadCount, dest, mode, runCfg, logger, mgr)
	start := time.Now()
	results, err := pool.ConvertAll(pairs)
	elapsed := time.Since(start)
	summary := mgr.Stop()
	if err != nil {
		logger.LogError("convert_all", err, nil)
		return err
	}

	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	pairsPerSecond := 0.0
	if elapsed.Seconds() > 0 {
		pairsPerSecond = float64(totalCandidates) / elapsed.Seconds()
	}
	logger.LogPerformanceMetrics(logging.PerformanceMetrics{
		PairsPerSecond: pairsPerSecond,
		TotalPairs:     int64(totalCandidates),
		FailedPairs:    int64(len(failed)),
		ThreadCount:    threadCount,
		SuccessRate:    100 * float64(totalCandidates-len(failed)) / float64(totalCandidates),
	})

	app.printSummary(cmd, summary, failed)

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d pairs failed conversion", len(failed), totalCandidates)
	}
	return nil
}

func (app *Application) printSummary(cmd *cobra.Command, summary progress.Summary, failed []worker.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "converted %d/%d pairs in %s\n",
		summary.Converted, summary.Total, utils.FormatDuration(summary.Elapsed))

	if len(failed) == 0 {
		return
	}

	rows := make([][]string, 0, len(failed))
	for _, f := range failed {
		rows = append(rows, []string{f.PK, kerrors.KindOf(f.Err)})
	}
	fmt.Fprint(out, utils.FormatTable([]string{"pk", "error"}, rows, 1))
}

// parseMode maps the case-insensitive --mode flag value onto a
// naming.Mode, failing closed on anything else.
func parseMode(raw string) (naming.Mode, error) {
	switch strings.ToUpper(raw) {
	case "WEB3SIGNER":
		return naming.ModeWeb3Signer, nil
	case "NIMBUS":
		return naming.ModeNimbus, nil
	default:
		return "", kerrors.New(kerrors.ErrorTypeInput, naming.KindUnsupportedMode,
			"parse_mode", "unsupported naming mode: "+raw)
	}
}
