package keystore

import (
	"crypto/sha256"
	"crypto/subtle"

	kerrors "keystore-converter/pkg/errors"
)

// ChecksumFunction is the tag of the crypto.checksum.function field.
// EIP-2335 names only one: sha256.
type ChecksumFunction string

const ChecksumSha256 ChecksumFunction = "sha256"

// computeChecksum returns sha256(dk[16:32] || cipherMessage), the
// value stored (hex-encoded) as crypto.checksum.message.
func computeChecksum(dk, cipherMessage []byte) ([]byte, error) {
	if len(dk) < 32 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindDerivedKeyTooShort,
			"compute_checksum", "derived key shorter than 32 bytes")
	}
	h := sha256.New()
	h.Write(dk[16:32])
	h.Write(cipherMessage)
	return h.Sum(nil), nil
}

// verifyChecksum recomputes the checksum over dk and cipherMessage and
// compares it, in constant time, against want. A mismatch surfaces as
// BadPassword: a wrong checksum at this stage almost always means the
// wrong password was used to derive dk.
func verifyChecksum(function ChecksumFunction, dk, cipherMessage, want []byte) error {
	if function != ChecksumSha256 {
		return kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedChecksumFunc,
			"verify_checksum", "unsupported checksum function: "+string(function))
	}
	if len(want) != sha256.Size {
		return kerrors.New(kerrors.ErrorTypeFormat, KindInvalidChecksumLen,
			"verify_checksum", "checksum message is not 32 bytes")
	}

	got, err := computeChecksum(dk, cipherMessage)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return kerrors.New(kerrors.ErrorTypeCrypto, KindBadPassword,
			"verify_checksum", "checksum mismatch, password is likely incorrect")
	}
	return nil
}
