package keystore

import (
	"encoding/json"

	"github.com/google/uuid"

	kerrors "keystore-converter/pkg/errors"
)

// SupportedVersion is the only EIP-2335 keystore version this
// converter understands.
const SupportedVersion = 4

// Envelope is the parsed, typed form of an EIP-2335 v4 keystore file.
type Envelope struct {
	Description string
	Pubkey      string
	Path        string
	UUID        string
	Version     int

	KDF          KdfFunction
	KDFParams    KdfParams
	Checksum     ChecksumFunction
	ChecksumMsg  []byte
	Cipher       CipherFunction
	CipherParams CipherParams
	CipherMsg    []byte
}

// wire structs mirror the on-disk JSON shape; KdfParams stay raw until
// the function tag is read, then are decoded once into the params
// shape that tag selects.

type wireEnvelope struct {
	Crypto      wireCrypto `json:"crypto"`
	Description string     `json:"description"`
	Pubkey      string     `json:"pubkey"`
	Path        string     `json:"path"`
	UUID        string     `json:"uuid"`
	Version     int        `json:"version"`
}

type wireCrypto struct {
	KDF      wireKDF      `json:"kdf"`
	Checksum wireChecksum `json:"checksum"`
	Cipher   wireCipher   `json:"cipher"`
}

type wireKDF struct {
	Function string          `json:"function"`
	Params   json.RawMessage `json:"params"`
	Message  string          `json:"message"`
}

type wireScryptParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

type wirePbkdf2Params struct {
	DKLen int    `json:"dklen"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

type wireChecksum struct {
	Function string          `json:"function"`
	Params   json.RawMessage `json:"params"`
	Message  string          `json:"message"`
}

type wireCipher struct {
	Function string         `json:"function"`
	Params   wireCipherParm `json:"params"`
	Message  string         `json:"message"`
}

type wireCipherParm struct {
	IV string `json:"iv"`
}

// parseEnvelope decodes and validates raw JSON bytes into an Envelope,
// failing closed on any unsupported or malformed field.
func parseEnvelope(data []byte) (*Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeFormat, KindMalformedJson,
			"parse_envelope", "keystore file is not valid json", err)
	}

	if w.Version != SupportedVersion {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedKeystoreVer,
			"parse_envelope", "unsupported keystore version")
	}

	env := &Envelope{
		Description: w.Description,
		Pubkey:      w.Pubkey,
		Path:        w.Path,
		UUID:        w.UUID,
		Version:     w.Version,
	}

	kdfParams, kdfFunc, err := parseKdfSection(w.Crypto.KDF)
	if err != nil {
		return nil, err
	}
	env.KDF = kdfFunc
	env.KDFParams = kdfParams

	env.Checksum = ChecksumFunction(w.Crypto.Checksum.Function)
	if env.Checksum != ChecksumSha256 {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedChecksumFunc,
			"parse_envelope", "unsupported checksum function")
	}
	checksumMsg, err := decodeHex(w.Crypto.Checksum.Message)
	if err != nil {
		return nil, err
	}
	env.ChecksumMsg = checksumMsg

	env.Cipher = CipherFunction(w.Crypto.Cipher.Function)
	if env.Cipher != CipherAes128Ctr {
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedCipherFunction,
			"parse_envelope", "unsupported cipher function")
	}
	iv, err := decodeHex(w.Crypto.Cipher.Params.IV)
	if err != nil {
		return nil, err
	}
	env.CipherParams = CipherParams{IV: iv}
	cipherMsg, err := decodeHex(w.Crypto.Cipher.Message)
	if err != nil {
		return nil, err
	}
	env.CipherMsg = cipherMsg

	return env, nil
}

func parseKdfSection(w wireKDF) (KdfParams, KdfFunction, error) {
	switch KdfFunction(w.Function) {
	case KdfScrypt:
		if w.Params == nil {
			return KdfParams{}, "", kerrors.New(kerrors.ErrorTypeFormat, KindMissingKdfParams,
				"parse_kdf", "scrypt params missing")
		}
		var sp wireScryptParams
		if err := json.Unmarshal(w.Params, &sp); err != nil {
			return KdfParams{}, "", kerrors.Wrap(kerrors.ErrorTypeFormat, KindMalformedJson,
				"parse_kdf", "scrypt params are not valid json", err)
		}
		salt, err := decodeHex(sp.Salt)
		if err != nil {
			return KdfParams{}, "", err
		}
		return KdfParams{
			Function: KdfScrypt,
			Scrypt: &ScryptParams{
				DKLen: sp.DKLen,
				N:     sp.N,
				R:     sp.R,
				P:     sp.P,
				Salt:  salt,
			},
		}, KdfScrypt, nil

	case KdfPbkdf2:
		if w.Params == nil {
			return KdfParams{}, "", kerrors.New(kerrors.ErrorTypeFormat, KindMissingKdfParams,
				"parse_kdf", "pbkdf2 params missing")
		}
		var pp wirePbkdf2Params
		if err := json.Unmarshal(w.Params, &pp); err != nil {
			return KdfParams{}, "", kerrors.Wrap(kerrors.ErrorTypeFormat, KindMalformedJson,
				"parse_kdf", "pbkdf2 params are not valid json", err)
		}
		salt, err := decodeHex(pp.Salt)
		if err != nil {
			return KdfParams{}, "", err
		}
		return KdfParams{
			Function: KdfPbkdf2,
			Pbkdf2: &Pbkdf2Params{
				DKLen: pp.DKLen,
				C:     pp.C,
				PRF:   pp.PRF,
				Salt:  salt,
			},
		}, KdfPbkdf2, nil

	default:
		return KdfParams{}, "", kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedKdfFunction,
			"parse_kdf", "unknown kdf function: "+w.Function)
	}
}

// serialize renders env back into the canonical EIP-2335 v4 JSON
// envelope.
func (env *Envelope) serialize() ([]byte, error) {
	w := wireEnvelope{
		Description: env.Description,
		Pubkey:      env.Pubkey,
		Path:        env.Path,
		UUID:        env.UUID,
		Version:     env.Version,
		Crypto: wireCrypto{
			Checksum: wireChecksum{
				Function: string(env.Checksum),
				Params:   json.RawMessage("{}"),
				Message:  encodeHex(env.ChecksumMsg),
			},
			Cipher: wireCipher{
				Function: string(env.Cipher),
				Params:   wireCipherParm{IV: encodeHex(env.CipherParams.IV)},
				Message:  encodeHex(env.CipherMsg),
			},
		},
	}

	switch env.KDF {
	case KdfScrypt:
		sp := env.KDFParams.Scrypt
		raw, err := json.Marshal(wireScryptParams{
			DKLen: sp.DKLen, N: sp.N, R: sp.R, P: sp.P, Salt: encodeHex(sp.Salt),
		})
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrorTypeFormat, KindMalformedJson,
				"serialize_envelope", "failed to marshal scrypt params", err)
		}
		w.Crypto.KDF = wireKDF{Function: string(KdfScrypt), Params: raw}
	case KdfPbkdf2:
		pp := env.KDFParams.Pbkdf2
		raw, err := json.Marshal(wirePbkdf2Params{
			DKLen: pp.DKLen, C: pp.C, PRF: pp.PRF, Salt: encodeHex(pp.Salt),
		})
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrorTypeFormat, KindMalformedJson,
				"serialize_envelope", "failed to marshal pbkdf2 params", err)
		}
		w.Crypto.KDF = wireKDF{Function: string(KdfPbkdf2), Params: raw}
	default:
		return nil, kerrors.New(kerrors.ErrorTypeFormat, KindUnsupportedKdfFunction,
			"serialize_envelope", "unknown kdf function: "+string(env.KDF))
	}

	out, err := json.MarshalIndent(w, "", "    ")
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrorTypeFormat, KindMalformedJson,
			"serialize_envelope", "failed to marshal envelope", err)
	}
	return out, nil
}

// freshUUID generates a new random (v4) UUID for a re-encrypted
// keystore, per EIP-2335's requirement that uuid identify this
// specific encryption of the secret.
func freshUUID() string {
	return uuid.NewString()
}
