package keystore

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	kerrors "keystore-converter/pkg/errors"
)

// preprocessPassword canonicalizes raw password-file bytes into the
// UTF-8 byte sequence fed to the KDF, per EIP-2335's password
// requirements: NFKD normalization followed by removal of the C0,
// Delete, and C1 control code points. Leading/trailing whitespace is
// left untouched; only the control-character ranges are stripped, and
// only after normalization (so a password containing literal control
// characters is not pre-trimmed before they are removed).
func preprocessPassword(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, kerrors.New(kerrors.ErrorTypeEnvironment, KindBadPasswordEncoding,
			"preprocess_password", "password file is not valid UTF-8")
	}

	normalized := norm.NFKD.Bytes(raw)

	out := make([]byte, 0, len(normalized))
	for i := 0; i < len(normalized); {
		r, size := utf8.DecodeRune(normalized[i:])
		if !isStrippedControl(r) {
			out = append(out, normalized[i:i+size]...)
		}
		i += size
	}
	return out, nil
}

// isStrippedControl reports whether r falls in the C0, Delete, or C1
// control ranges that EIP-2335 requires to be removed from passwords.
func isStrippedControl(r rune) bool {
	switch {
	case r >= 0x00 && r <= 0x1F: // C0
		return true
	case r == 0x7F: // Delete
		return true
	case r >= 0x80 && r <= 0x9F: // C1
		return true
	default:
		return false
	}
}
