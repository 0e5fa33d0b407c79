// Package worker fans a batch of keystore conversions out across a
// bounded pool of goroutines, one pipeline invocation per pair.
package worker

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"keystore-converter/internal/keystore"
	"keystore-converter/internal/naming"
	kerrors "keystore-converter/pkg/errors"
	"keystore-converter/pkg/logging"
)

// Reporter receives per-pair outcomes as the pool drains. Both
// progress.Manager and a plain no-op satisfy this.
type Reporter interface {
	PairConverted(pk string)
	PairFailed(pk, kind string)
}

// Result is the outcome of converting a single pair.
type Result struct {
	PK  string
	Err error
}

// Pool converts a batch of pairs concurrently, writing each
// re-encrypted keystore to destDir under mode's naming convention.
// Concurrency is bounded by threadCount; no two tasks share mutable
// state beyond the process-wide CSPRNG, which is safe for concurrent
// use.
type Pool struct {
	threadCount int
	destDir     string
	mode        naming.Mode
	cfg         keystore.RunConfig
	logger      logging.SecureLogger
	reporter    Reporter
}

// New creates a Pool. logger and reporter may be nil; a nil reporter
// disables progress callbacks.
func New(threadCount int, destDir string, mode naming.Mode, cfg keystore.RunConfig, logger logging.SecureLogger, reporter Reporter) *Pool {
	if threadCount < 1 {
		threadCount = 1
	}
	return &Pool{
		threadCount: threadCount,
		destDir:     destDir,
		mode:        mode,
		cfg:         cfg,
		logger:      logger,
		reporter:    reporter,
	}
}

// ConvertAll runs one conversion per pair, bounded by p.threadCount
// concurrent tasks, and returns every pair's outcome. It never returns
// early on a per-pair failure: each pair is its own transaction, per
// the propagation policy of a batch conversion run.
func (p *Pool) ConvertAll(pairs []naming.Pair) ([]Result, error) {
	antsPool, err := ants.NewPool(p.threadCount, ants.WithPreAlloc(true))
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeEnvironment, "WorkerPoolInitFailed",
			"convert_all", "failed to start worker pool", err)
	}
	defer antsPool.Release()

	results := make([]Result, len(pairs))
	var wg sync.WaitGroup
	wg.Add(len(pairs))

	for i, pair := range pairs {
		i, pair := i, pair
		submitErr := antsPool.Submit(func() {
			defer wg.Done()
			results[i] = p.convertOne(pair)
		})
		if submitErr != nil {
			results[i] = Result{PK: pair.PK, Err: submitErr}
			wg.Done()
		}
	}

	wg.Wait()
	return results, nil
}

func (p *Pool) convertOne(pair naming.Pair) Result {
	start := time.Now()
	keystoreJSON, err := os.ReadFile(pair.KeystorePath)
	if err != nil {
		return p.fail(pair.PK, kerrors.Wrap(kerrors.ErrorTypeIO, "ReadFailed",
			"read_keystore", "failed to read keystore file", err).WithPK(pair.PK))
	}
	passwordRaw, err := os.ReadFile(pair.PasswordPath)
	if err != nil {
		return p.fail(pair.PK, kerrors.Wrap(kerrors.ErrorTypeIO, "ReadFailed",
			"read_password", "failed to read password file", err).WithPK(pair.PK))
	}

	out, err := keystore.Convert(keystoreJSON, passwordRaw, p.cfg)
	if err != nil {
		if ce, ok := err.(*kerrors.ConversionError); ok {
			ce.WithPK(pair.PK)
		}
		return p.fail(pair.PK, err)
	}

	if err := p.writeOutput(pair.PK, out); err != nil {
		return p.fail(pair.PK, err)
	}

	if p.logger != nil {
		p.logger.LogPairConverted(pair.PK, time.Since(start))
	}
	if p.reporter != nil {
		p.reporter.PairConverted(pair.PK)
	}
	return Result{PK: pair.PK}
}

func (p *Pool) fail(pk string, err error) Result {
	if p.logger != nil {
		p.logger.LogPairFailed(pk, kerrors.KindOf(err))
	}
	if p.reporter != nil {
		p.reporter.PairFailed(pk, kerrors.KindOf(err))
	}
	return Result{PK: pk, Err: err}
}

// writeOutput serializes out to destDir under p.mode's naming
// convention, writing to a temp file and renaming into place so a
// crash mid-write never leaves a partial keystore on disk.
func (p *Pool) writeOutput(pk string, out []byte) error {
	var finalPath string
	switch p.mode {
	case naming.ModeNimbus:
		dir := filepath.Join(p.destDir, pk)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return kerrors.Wrap(kerrors.ErrorTypeIO, "WriteFailed",
				"write_keystore", "failed to create destination directory", err).WithPK(pk)
		}
		finalPath = filepath.Join(dir, "keystore.json")
	default:
		finalPath = filepath.Join(p.destDir, pk+".json")
	}

	tmpPath := finalPath + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmpPath, out, 0o600); err != nil {
		return kerrors.Wrap(kerrors.ErrorTypeIO, "WriteFailed",
			"write_keystore", "failed to write keystore file", err).WithPK(pk)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return kerrors.Wrap(kerrors.ErrorTypeIO, "WriteFailed",
			"write_keystore", "failed to finalize keystore file", err).WithPK(pk)
	}
	return nil
}
