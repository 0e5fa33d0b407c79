package keystore

import (
	"crypto/aes"
	"crypto/rand"

	kerrors "keystore-converter/pkg/errors"
)

// RunConfig selects the KDF and parameters used to re-encrypt every
// keystore in a conversion run. The same RunConfig is applied
// uniformly across a batch; only salt, IV and uuid are freshly drawn
// per pair.
type RunConfig struct {
	KDFFunction KdfFunction
	Pbkdf2Count int
	ScryptN     int
	ScryptR     int
	ScryptP     int
	DKLen       int
}

// DefaultRunConfig uses the scrypt parameters of the official EIP-2335
// scrypt test vector (n=262144, r=8, p=1) and the pbkdf2 vector's count.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		KDFFunction: KdfScrypt,
		ScryptN:     262144,
		ScryptR:     8,
		ScryptP:     1,
		Pbkdf2Count: 262144,
		DKLen:       32,
	}
}

// Convert runs the full parse -> normalize -> derive -> verify ->
// decrypt -> re-derive -> re-encrypt -> checksum -> serialize pipeline
// over a single keystore file's bytes and its paired password bytes,
// producing the bytes of the re-encrypted keystore. Every secret
// buffer allocated along the way (password, DK, DK', secret) is
// zeroized before Convert returns, on both the success and error
// paths.
func Convert(keystoreJSON, passwordRaw []byte, cfg RunConfig) ([]byte, error) {
	env, err := parseEnvelope(keystoreJSON)
	if err != nil {
		return nil, err
	}

	password, err := preprocessPassword(passwordRaw)
	if err != nil {
		return nil, err
	}
	defer zeroize(password)

	dk, err := deriveKey(password, env.KDFParams)
	if err != nil {
		return nil, err
	}
	defer zeroize(dk)

	if err := verifyChecksum(env.Checksum, dk, env.CipherMsg, env.ChecksumMsg); err != nil {
		return nil, err
	}

	secret, err := runAes128Ctr(env.Cipher, dk, env.CipherParams, env.CipherMsg)
	if err != nil {
		return nil, err
	}
	defer zeroize(secret)

	newParams, err := buildKdfParams(cfg)
	if err != nil {
		return nil, err
	}

	dk2, err := deriveKey(password, newParams)
	if err != nil {
		return nil, err
	}
	defer zeroize(dk2)

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeEnvironment, KindInvalidKdfParameters,
			"convert", "failed to read random iv", err)
	}
	cipherParams := CipherParams{IV: iv}

	ciphertext, err := runAes128Ctr(CipherAes128Ctr, dk2, cipherParams, secret)
	if err != nil {
		return nil, err
	}

	checksumMsg, err := computeChecksum(dk2, ciphertext)
	if err != nil {
		return nil, err
	}

	out := &Envelope{
		Description:  env.Description,
		Pubkey:       env.Pubkey,
		Path:         env.Path,
		UUID:         freshUUID(),
		Version:      SupportedVersion,
		KDF:          newParams.Function,
		KDFParams:    newParams,
		Checksum:     ChecksumSha256,
		ChecksumMsg:  checksumMsg,
		Cipher:       CipherAes128Ctr,
		CipherParams: cipherParams,
		CipherMsg:    ciphertext,
	}

	return out.serialize()
}

// buildKdfParams draws a fresh salt and assembles KdfParams for the
// target KDF named by cfg.
func buildKdfParams(cfg RunConfig) (KdfParams, error) {
	dklen := cfg.DKLen
	if dklen == 0 {
		dklen = 32
	}

	switch cfg.KDFFunction {
	case KdfScrypt:
		salt := make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return KdfParams{}, kerrors.Wrap(kerrors.ErrorTypeEnvironment, KindInvalidKdfParameters,
				"build_kdf_params", "failed to read random salt", err)
		}
		return KdfParams{
			Function: KdfScrypt,
			Scrypt: &ScryptParams{
				DKLen: dklen,
				N:     cfg.ScryptN,
				R:     cfg.ScryptR,
				P:     cfg.ScryptP,
				Salt:  salt,
			},
		}, nil
	case KdfPbkdf2:
		salt := make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return KdfParams{}, kerrors.Wrap(kerrors.ErrorTypeEnvironment, KindInvalidKdfParameters,
				"build_kdf_params", "failed to read random salt", err)
		}
		return KdfParams{
			Function: KdfPbkdf2,
			Pbkdf2: &Pbkdf2Params{
				DKLen: dklen,
				C:     cfg.Pbkdf2Count,
				PRF:   "hmac-sha256",
				Salt:  salt,
			},
		}, nil
	default:
		return KdfParams{}, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedKdfFunction,
			"build_kdf_params", "unknown target kdf function: "+string(cfg.KDFFunction))
	}
}

// zeroize overwrites b with zero bytes in place. It is called on
// every secret buffer along the conversion path before that buffer
// goes out of scope, whether Convert succeeds or fails.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
