package keystore

import (
	"encoding/hex"
	"strings"

	kerrors "keystore-converter/pkg/errors"
)

// encodeHex returns the lower-case, no-prefix hex encoding of b.
func encodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// decodeHex decodes a hex string, accepted case-insensitively, into
// bytes. It fails with the InvalidHex kind on odd length or non-hex
// characters.
func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeFormat, KindInvalidHex,
			"decode_hex", "value is not well-formed hex", err)
	}
	return b, nil
}
