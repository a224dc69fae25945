package keys

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("keys: invalid BIP39 mnemonic")

	// ErrInvalidWordCount indicates a mnemonic length other than 12 or 24 words.
	ErrInvalidWordCount = errors.New("keys: mnemonic must have 12 or 24 words")

	// ErrInvalidSeed indicates the seed is empty.
	ErrInvalidSeed = errors.New("keys: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("keys: key derivation failed")

	// ErrIndexOutOfRange indicates an index above the non-hardened maximum.
	ErrIndexOutOfRange = errors.New("keys: index exceeds maximum (2^31-1)")

	// ErrDecryptionFailed indicates a wrong password or corrupted keystore.
	ErrDecryptionFailed = errors.New("keys: keystore decryption failed (wrong password or corrupted data)")

	// ErrKDFParams indicates key derivation parameters outside the accepted range.
	ErrKDFParams = errors.New("keys: KDF parameters out of range")

	// ErrChecksumMismatch indicates the decrypted seed failed its checksum.
	ErrChecksumMismatch = errors.New("keys: seed checksum mismatch")
)
