package keystore

import (
	"bytes"
	"testing"
)

func TestPreprocessPasswordFrakturNormalization(t *testing.T) {
	raw := []byte("𝔱𝔢𝔰𝔱𝔭𝔞𝔰𝔰𝔴𝔬𝔯𝔡🔑")
	want := []byte{
		0x74, 0x65, 0x73, 0x74, 0x70, 0x61, 0x73, 0x73,
		0x77, 0x6f, 0x72, 0x64, 0xf0, 0x9f, 0x94, 0x91,
	}

	got, err := preprocessPassword(raw)
	if err != nil {
		t.Fatalf("preprocessPassword: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestPreprocessPasswordStripsControlCodes(t *testing.T) {
	raw := []byte("pass\x00wo\x7frd\xc2\x81!")
	got, err := preprocessPassword(raw)
	if err != nil {
		t.Fatalf("preprocessPassword: %v", err)
	}
	want := []byte("password!")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessPasswordRejectsInvalidUTF8(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0x00}
	_, err := preprocessPassword(raw)
	if err == nil {
		t.Fatal("expected error for invalid utf-8 password")
	}
}

func TestPreprocessPasswordLeavesPlainASCIIUntouched(t *testing.T) {
	raw := []byte("correct horse battery staple")
	got, err := preprocessPassword(raw)
	if err != nil {
		t.Fatalf("preprocessPassword: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("got %q, want %q", got, raw)
	}
}
