package keystore

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	kerrors "keystore-converter/pkg/errors"
)

// KdfFunction is the tag of the crypto.kdf.params sum type.
type KdfFunction string

const (
	KdfScrypt KdfFunction = "scrypt"
	KdfPbkdf2 KdfFunction = "pbkdf2"
)

// ScryptParams is the scrypt variant of crypto.kdf.params.
type ScryptParams struct {
	DKLen int
	N     int
	R     int
	P     int
	Salt  []byte
}

// Pbkdf2Params is the pbkdf2 variant of crypto.kdf.params. PRF is
// validated to be "hmac-sha256"; no other PRF is supported.
type Pbkdf2Params struct {
	DKLen int
	C     int
	PRF   string
	Salt  []byte
}

// KdfParams is the tagged union over the two supported KDFs. Exactly
// one of Scrypt/Pbkdf2 is populated, matching Function.
type KdfParams struct {
	Function KdfFunction
	Scrypt   *ScryptParams
	Pbkdf2   *Pbkdf2Params
}

// deriveKey runs the selected KDF over password, producing a
// DK of length params.dklen. password is never copied beyond what the
// underlying KDF implementation requires; the caller owns zeroizing
// the returned slice.
func deriveKey(password []byte, params KdfParams) ([]byte, error) {
	switch params.Function {
	case KdfScrypt:
		return deriveScrypt(password, params.Scrypt)
	case KdfPbkdf2:
		return derivePbkdf2(password, params.Pbkdf2)
	default:
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedKdfFunction,
			"derive_key", "unknown kdf function: "+string(params.Function))
	}
}

func deriveScrypt(password []byte, p *ScryptParams) ([]byte, error) {
	if p == nil {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindMissingKdfParams,
			"derive_scrypt", "scrypt parameters are missing")
	}
	if p.DKLen < 32 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindDerivedKeyTooShort,
			"derive_scrypt", "dklen below 32-byte minimum")
	}
	if p.N < 2 || p.N&(p.N-1) != 0 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"derive_scrypt", "n must be a power of two and at least 2")
	}
	if p.R < 1 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"derive_scrypt", "r must be at least 1")
	}
	if p.P < 1 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"derive_scrypt", "p must be at least 1")
	}

	dk, err := scrypt.Key(password, p.Salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"derive_scrypt", "scrypt derivation failed", err)
	}
	return dk, nil
}

func derivePbkdf2(password []byte, p *Pbkdf2Params) ([]byte, error) {
	if p == nil {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindMissingKdfParams,
			"derive_pbkdf2", "pbkdf2 parameters are missing")
	}
	if p.DKLen < 32 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindDerivedKeyTooShort,
			"derive_pbkdf2", "dklen below 32-byte minimum")
	}
	if p.C < 1 {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"derive_pbkdf2", "c must be at least 1")
	}
	if p.PRF != "hmac-sha256" {
		return nil, kerrors.New(kerrors.ErrorTypeCrypto, KindInvalidKdfParameters,
			"derive_pbkdf2", "unsupported prf: "+p.PRF)
	}

	return pbkdf2.Key(password, p.Salt, p.C, p.DKLen, sha256.New), nil
}
