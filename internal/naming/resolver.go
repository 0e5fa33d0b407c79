// Package naming resolves the on-disk layout of a directory of
// EIP-2335 keystores into discrete (keystore, password) pairs, per
// the web3signer and nimbus conventions used in the Ethereum staking
// ecosystem.
package naming

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	kerrors "keystore-converter/pkg/errors"
)

// Mode is an on-disk naming convention for a keystore/password
// directory pair.
type Mode string

const (
	ModeWeb3Signer Mode = "web3signer"
	ModeNimbus     Mode = "nimbus"
)

const (
	KindUnsupportedMode     = "UnsupportedNamingMode"
	KindMissingPasswordFile = "MissingPasswordFile"
	KindMissingKeystoreFile = "MissingKeystoreFile"
	KindReadFailed          = "ReadFailed"
)

// Pair identifies one discovered keystore together with its matching
// password file, keyed by pk: the keystore's file- or directory-name
// stem.
type Pair struct {
	PK           string
	KeystorePath string
	PasswordPath string
}

// Failure is a single candidate discovered under srcDir that could not
// be resolved into a Pair (its password or keystore counterpart is
// missing). It carries the pk so the run can report this candidate
// alongside every other pair's outcome without discarding the rest of
// the batch, per the "one pair's failure does not abort the run"
// propagation policy.
type Failure struct {
	PK  string
	Err error
}

// Resolve enumerates every (keystore, password) pair under srcDir and
// passwordDir according to mode. Pairs are returned sorted by pk for
// deterministic processing order. A candidate missing its counterpart
// file is reported as a Failure rather than aborting the call; the
// returned error is reserved for directory-level failures (the
// directory cannot be read, or mode itself is unsupported), which do
// abort before any pair is processed.
func Resolve(srcDir, passwordDir string, mode Mode) ([]Pair, []Failure, error) {
	switch mode {
	case ModeWeb3Signer:
		return resolveWeb3Signer(srcDir, passwordDir)
	case ModeNimbus:
		return resolveNimbus(srcDir, passwordDir)
	default:
		return nil, nil, kerrors.New(kerrors.ErrorTypeInput, KindUnsupportedMode,
			"resolve_pairs", "unsupported naming mode: "+string(mode))
	}
}

// resolveWeb3Signer expects srcDir/<pk>.json keystores matched against
// passwordDir/<pk>.txt password files.
func resolveWeb3Signer(srcDir, passwordDir string) ([]Pair, []Failure, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, nil, kerrors.Wrap(kerrors.ErrorTypeIO, KindReadFailed,
			"resolve_pairs", "failed to read source directory", err)
	}

	var pairs []Pair
	var failures []Failure
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		pk := strings.TrimSuffix(e.Name(), ".json")
		passwordPath := filepath.Join(passwordDir, pk+".txt")
		if _, err := os.Stat(passwordPath); err != nil {
			failures = append(failures, Failure{PK: pk, Err: kerrors.New(kerrors.ErrorTypeInput, KindMissingPasswordFile,
				"resolve_pairs", "no matching password file for "+pk).WithPK(pk)})
			continue
		}
		pairs = append(pairs, Pair{
			PK:           pk,
			KeystorePath: filepath.Join(srcDir, e.Name()),
			PasswordPath: passwordPath,
		})
	}

	sortPairs(pairs)
	sortFailures(failures)
	return pairs, failures, nil
}

// resolveNimbus expects srcDir/<pk>/keystore.json keystores matched
// against passwordDir/<pk> password files.
func resolveNimbus(srcDir, passwordDir string) ([]Pair, []Failure, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, nil, kerrors.Wrap(kerrors.ErrorTypeIO, KindReadFailed,
			"resolve_pairs", "failed to read source directory", err)
	}

	var pairs []Pair
	var failures []Failure
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pk := e.Name()
		keystorePath := filepath.Join(srcDir, pk, "keystore.json")
		if _, err := os.Stat(keystorePath); err != nil {
			failures = append(failures, Failure{PK: pk, Err: kerrors.New(kerrors.ErrorTypeInput, KindMissingKeystoreFile,
				"resolve_pairs", "no keystore.json under "+pk).WithPK(pk)})
			continue
		}
		passwordPath := filepath.Join(passwordDir, pk)
		if _, err := os.Stat(passwordPath); err != nil {
			failures = append(failures, Failure{PK: pk, Err: kerrors.New(kerrors.ErrorTypeInput, KindMissingPasswordFile,
				"resolve_pairs", "no matching password file for "+pk).WithPK(pk)})
			continue
		}
		pairs = append(pairs, Pair{
			PK:           pk,
			KeystorePath: keystorePath,
			PasswordPath: passwordPath,
		})
	}

	sortPairs(pairs)
	sortFailures(failures)
	return pairs, failures, nil
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].PK < pairs[j].PK })
}

func sortFailures(failures []Failure) {
	sort.Slice(failures, func(i, j int) bool { return failures[i].PK < failures[j].PK })
}
