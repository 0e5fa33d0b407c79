package keystore

import (
	"bytes"
	"testing"

	kerrors "keystore-converter/pkg/errors"
)

// buildFixture constructs a well-formed keystore envelope around
// secret, encrypted under password with the given kdf, using the
// production crypto primitives themselves (mirroring what a real
// EIP-2335 keystore producer does) so the fixture always agrees with
// what Convert expects to undo.
func buildFixture(t *testing.T, password, secret []byte, kdfParams KdfParams) []byte {
	t.Helper()

	dk, err := deriveKey(password, kdfParams)
	if err != nil {
		t.Fatalf("deriveKey: %v", err)
	}

	iv, err := decodeHex("264daa3f303d7259501c93d997d84fe6")
	if err != nil {
		t.Fatalf("decodeHex(iv): %v", err)
	}
	cipherParams := CipherParams{IV: iv}

	ciphertext, err := runAes128Ctr(CipherAes128Ctr, dk, cipherParams, secret)
	if err != nil {
		t.Fatalf("runAes128Ctr: %v", err)
	}

	checksum, err := computeChecksum(dk, ciphertext)
	if err != nil {
		t.Fatalf("computeChecksum: %v", err)
	}

	env := &Envelope{
		Description:  "fixture",
		Pubkey:       "9612d7a72d9620e1c0d5dca4b1c2c8c5e0c2c3e2dd7c9c6bcb3fce08e3c42dc6b5dd5f4a5a2ad3a6c27c6e3c8d7e1b2f",
		Path:         "m/12381/3600/0/0",
		UUID:         freshUUID(),
		Version:      SupportedVersion,
		KDF:          kdfParams.Function,
		KDFParams:    kdfParams,
		Checksum:     ChecksumSha256,
		ChecksumMsg:  checksum,
		Cipher:       CipherAes128Ctr,
		CipherParams: cipherParams,
		CipherMsg:    ciphertext,
	}

	out, err := env.serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return out
}

func officialVectorSecret() []byte {
	secret := make([]byte, 32)
	secret[31] = 0x01
	return secret
}

func officialVectorSalt(t *testing.T) []byte {
	t.Helper()
	salt, err := decodeHex("d4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3")
	if err != nil {
		t.Fatalf("decodeHex(salt): %v", err)
	}
	return salt
}

func decryptForTest(t *testing.T, keystoreJSON, password []byte) []byte {
	t.Helper()
	env, err := parseEnvelope(keystoreJSON)
	if err != nil {
		t.Fatalf("parseEnvelope: %v", err)
	}
	dk, err := deriveKey(password, env.KDFParams)
	if err != nil {
		t.Fatalf("deriveKey: %v", err)
	}
	if err := verifyChecksum(env.Checksum, dk, env.CipherMsg, env.ChecksumMsg); err != nil {
		t.Fatalf("verifyChecksum: %v", err)
	}
	secret, err := runAes128Ctr(env.Cipher, dk, env.CipherParams, env.CipherMsg)
	if err != nil {
		t.Fatalf("runAes128Ctr: %v", err)
	}
	return secret
}

func TestConvertOfficialScryptVector(t *testing.T) {
	password := []byte("testpassword\xf0\x9f\x94\x91")
	secret := officialVectorSecret()
	keystoreJSON := buildFixture(t, password, secret, KdfParams{
		Function: KdfScrypt,
		Scrypt:   &ScryptParams{DKLen: 32, N: 262144, R: 8, P: 1, Salt: officialVectorSalt(t)},
	})

	out, err := Convert(keystoreJSON, password, DefaultRunConfig())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	got := decryptForTest(t, out, password)
	if !bytes.Equal(got, secret) {
		t.Fatalf("got secret %x, want %x", got, secret)
	}
}

func TestConvertOfficialPbkdf2Vector(t *testing.T) {
	password := []byte("testpassword\xf0\x9f\x94\x91")
	secret := officialVectorSecret()
	keystoreJSON := buildFixture(t, password, secret, KdfParams{
		Function: KdfPbkdf2,
		Pbkdf2:   &Pbkdf2Params{DKLen: 32, C: 262144, PRF: "hmac-sha256", Salt: officialVectorSalt(t)},
	})

	cfg := RunConfig{KDFFunction: KdfPbkdf2, Pbkdf2Count: 1000, DKLen: 32}
	out, err := Convert(keystoreJSON, password, cfg)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	got := decryptForTest(t, out, password)
	if !bytes.Equal(got, secret) {
		t.Fatalf("got secret %x, want %x", got, secret)
	}
}

func TestConvertRejectsWrongPassword(t *testing.T) {
	password := []byte("correct horse battery staple")
	secret := officialVectorSecret()
	keystoreJSON := buildFixture(t, password, secret, KdfParams{
		Function: KdfScrypt,
		Scrypt:   &ScryptParams{DKLen: 32, N: 2, R: 1, P: 1, Salt: []byte("shortsalt")},
	})

	_, err := Convert(keystoreJSON, []byte("wrong password"), DefaultRunConfig())
	if err == nil {
		t.Fatal("expected error for wrong password")
	}
	if kerrors.KindOf(err) != KindBadPassword {
		t.Fatalf("got kind %q, want %q", kerrors.KindOf(err), KindBadPassword)
	}
}

func TestConvertProducesFreshSaltIVAndUUID(t *testing.T) {
	password := []byte("correct horse battery staple")
	secret := officialVectorSecret()
	srcParams := KdfParams{
		Function: KdfScrypt,
		Scrypt:   &ScryptParams{DKLen: 32, N: 2, R: 1, P: 1, Salt: []byte("shortsalt")},
	}
	keystoreJSON := buildFixture(t, password, secret, srcParams)

	srcEnv, err := parseEnvelope(keystoreJSON)
	if err != nil {
		t.Fatalf("parseEnvelope: %v", err)
	}

	cfg := RunConfig{KDFFunction: KdfScrypt, ScryptN: 2, ScryptR: 1, ScryptP: 1, DKLen: 32}
	out, err := Convert(keystoreJSON, password, cfg)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	dstEnv, err := parseEnvelope(out)
	if err != nil {
		t.Fatalf("parseEnvelope(out): %v", err)
	}

	if dstEnv.UUID == srcEnv.UUID {
		t.Fatal("expected a fresh uuid")
	}
	if bytes.Equal(dstEnv.KDFParams.Scrypt.Salt, srcEnv.KDFParams.Scrypt.Salt) {
		t.Fatal("expected a fresh salt")
	}
	if bytes.Equal(dstEnv.CipherParams.IV, srcEnv.CipherParams.IV) {
		t.Fatal("expected a fresh iv")
	}
	if dstEnv.Pubkey != srcEnv.Pubkey || dstEnv.Path != srcEnv.Path {
		t.Fatal("pubkey and path must be preserved across re-encryption")
	}
}

func TestConvertRejectsMalformedKeystore(t *testing.T) {
	_, err := Convert([]byte("not json"), []byte("pw"), DefaultRunConfig())
	if err == nil {
		t.Fatal("expected error for malformed keystore")
	}
	if kerrors.KindOf(err) != KindMalformedJson {
		t.Fatalf("got kind %q, want %q", kerrors.KindOf(err), KindMalformedJson)
	}
}
