// Package pathvalidate checks that a conversion run's source,
// password, and destination directories are usable before any pair is
// processed, per the "fail the whole run before touching a single
// pair" policy.
package pathvalidate

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	kerrors "keystore-converter/pkg/errors"
)

const (
	KindInvalidSourceDirectory      = "InvalidSourceDirectory"
	KindInvalidPasswordDirectory    = "InvalidPasswordDirectory"
	KindInvalidDestinationDirectory = "InvalidDestinationDirectory"
)

// Paths holds the three directories a conversion run operates on.
type Paths struct {
	Src         string
	PasswordDir string
	Dest        string
}

// Validate checks that Src and PasswordDir exist and are readable
// directories, and that Dest either already exists as a writable
// directory or can be created (with parents). Dest write access is
// verified by creating and removing a uniquely named probe file, since
// directory permission bits alone do not guarantee a writable
// filesystem (read-only mounts, quota exhaustion).
func Validate(p Paths) error {
	if err := validateReadableDir(p.Src, KindInvalidSourceDirectory); err != nil {
		return err
	}
	if err := validateReadableDir(p.PasswordDir, KindInvalidPasswordDirectory); err != nil {
		return err
	}
	return validateWritableDir(p.Dest)
}

func validateReadableDir(dir, kind string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return kerrors.Wrap(kerrors.ErrorTypeInput, kind,
			"validate_path", "directory does not exist or is not accessible: "+dir, err)
	}
	if !info.IsDir() {
		return kerrors.New(kerrors.ErrorTypeInput, kind,
			"validate_path", "not a directory: "+dir)
	}
	if _, err := os.ReadDir(dir); err != nil {
		return kerrors.Wrap(kerrors.ErrorTypeInput, kind,
			"validate_path", "directory is not readable: "+dir, err)
	}
	return nil
}

func validateWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kerrors.Wrap(kerrors.ErrorTypeInput, KindInvalidDestinationDirectory,
			"validate_path", "failed to create destination directory: "+dir, err)
	}

	probe := filepath.Join(dir, ".write-probe-"+uuid.NewString())
	f, err := os.Create(probe)
	if err != nil {
		return kerrors.Wrap(kerrors.ErrorTypeInput, KindInvalidDestinationDirectory,
			"validate_path", "destination directory is not writable: "+dir, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}
