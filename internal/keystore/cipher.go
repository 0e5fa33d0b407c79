package keystore

import (
	"crypto/aes"
	"crypto/cipher"

	kerrors "keystore-converter/pkg/errors"
)

// CipherFunction is the tag of the crypto.cipher.function field.
// EIP-2335 names only one: aes-128-ctr.
type CipherFunction string

const CipherAes128Ctr CipherFunction = "aes-128-ctr"

// CipherParams holds the IV for aes-128-ctr.
type CipherParams struct {
	IV []byte
}

// runAes128Ctr XORs in into a freshly-allocated buffer using
// AES-128-CTR keyed by dk[0:16] and the given IV. CTR mode is its own
// inverse, so this single function serves both decryption of the
// source keystore's secret and encryption of the re-derived one.
func runAes128Ctr(function CipherFunction, dk []byte, params CipherParams, in []byte) ([]byte, error) {
	if function != CipherAes128Ctr {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedCipherFunction,
			"run_cipher", "unsupported cipher function: "+string(function))
	}
	if len(dk) < 16 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindDerivedKeyTooShort,
			"run_cipher", "derived key shorter than 16 bytes")
	}
	if len(params.IV) != aes.BlockSize {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindMissingCipherParams,
			"run_cipher", "iv must be 16 bytes")
	}

	block, err := aes.NewCipher(dk[:16])
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"run_cipher", "failed to construct aes cipher", err)
	}

	out := make([]byte, len(in))
	stream := cipher.NewCTR(block, params.IV)
	stream.XORKeyStream(out, in)
	return out, nil
}
