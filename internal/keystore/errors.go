package keystore

// Error kind constants, per spec section 7. Each is surfaced to the
// caller as a *errors.ConversionError with this string as Kind.
const (
	KindMalformedJson             = "MalformedJson"
	KindUnsupportedKeystoreVer    = "UnsupportedKeystoreVersion"
	KindUnsupportedKdfFunction    = "UnsupportedKdfFunction"
	KindUnsupportedCipherFunction = "UnsupportedCipherFunction"
	KindUnsupportedChecksumFunc   = "UnsupportedChecksumFunction"
	KindMissingKdfParams          = "MissingKdfParams"
	KindMissingCipherParams       = "MissingCipherParams"
	KindInvalidHex                = "InvalidHex"

	KindInvalidKdfParameters = "InvalidKdfParameters"
	KindDerivedKeyTooShort   = "DerivedKeyTooShort"
	KindBadPassword          = "BadPassword"
	KindInvalidChecksumLen   = "InvalidChecksumLength"

	KindBadPasswordEncoding = "BadPasswordEncoding"
)
