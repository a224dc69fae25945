package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// KDF holds the Argon2id parameters used to seal a keystore.
type KDF struct {
	Time        uint32
	Memory      uint32 // KiB
	Parallelism uint8
}

// DefaultKDF is used by Seal.
var DefaultKDF = KDF{Time: 3, Memory: 64 * 1024, Parallelism: 4}

// Upper bounds on KDF parameters. Open refuses headers above them.
const (
	MaxKDFTime   = 16
	MaxKDFMemory = 1 << 20 // KiB, 1 GiB
)

func (k KDF) validate() error {
	if k.Time == 0 || k.Time > MaxKDFTime ||
		k.Memory == 0 || k.Memory > MaxKDFMemory ||
		k.Parallelism == 0 {
		return fmt.Errorf("%w: time=%d memory=%dKiB parallelism=%d", ErrKDFParams, k.Time, k.Memory, k.Parallelism)
	}
	return nil
}

// Keystore format sizes.
const (
	saltLen     = 16
	nonceLen    = 12
	checksumLen = 4
	keyLen      = 32
	headerLen   = 9 // time(4) || memory(4) || parallelism(1)
)

// Seal encrypts seed with password using DefaultKDF.
func Seal(seed []byte, password string) ([]byte, error) {
	return SealWith(seed, password, DefaultKDF)
}

// SealWith encrypts seed with password.
//
// Output: kdf header(9B) || salt(16B) || nonce(12B) || AES-GCM(argon2id(password, salt), nonce, seed || sha256(seed)[:4])
func SealWith(seed []byte, password string, kdf KDF) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if err := kdf.validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keys: generate salt: %w", err)
	}
	gcm, err := newGCM(password, salt, kdf)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keys: generate nonce: %w", err)
	}

	sum := sha256.Sum256(seed)
	plaintext := make([]byte, 0, len(seed)+checksumLen)
	plaintext = append(plaintext, seed...)
	plaintext = append(plaintext, sum[:checksumLen]...)

	out := make([]byte, 0, headerLen+saltLen+nonceLen+len(plaintext)+gcm.Overhead())
	out = binary.BigEndian.AppendUint32(out, kdf.Time)
	out = binary.BigEndian.AppendUint32(out, kdf.Memory)
	out = append(out, kdf.Parallelism)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a keystore produced by Seal and verifies its checksum.
func Open(data []byte, password string) ([]byte, error) {
	if len(data) < headerLen+saltLen+nonceLen+checksumLen {
		return nil, ErrDecryptionFailed
	}
	kdf := KDF{
		Time:        binary.BigEndian.Uint32(data[0:4]),
		Memory:      binary.BigEndian.Uint32(data[4:8]),
		Parallelism: data[8],
	}
	if err := kdf.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	rest := data[headerLen:]
	salt := rest[:saltLen]
	nonce := rest[saltLen : saltLen+nonceLen]
	ciphertext := rest[saltLen+nonceLen:]

	gcm, err := newGCM(password, salt, kdf)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil || len(plaintext) < checksumLen {
		return nil, ErrDecryptionFailed
	}
	seed := plaintext[:len(plaintext)-checksumLen]
	sum := sha256.Sum256(seed)
	if subtle.ConstantTimeCompare(sum[:checksumLen], plaintext[len(seed):]) != 1 {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}

func newGCM(password string, salt []byte, kdf KDF) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, kdf.Time, kdf.Memory, kdf.Parallelism, keyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keys: AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keys: GCM: %w", err)
	}
	return gcm, nil
}

// SaveKeystore seals seed and writes it to path with owner-only permissions.
func SaveKeystore(path string, seed []byte, password string) error {
	data, err := Seal(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keys: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("keys: write keystore: %w", err)
	}
	return nil
}

// LoadKeystore reads and opens the keystore at path.
func LoadKeystore(path, password string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read keystore: %w", err)
	}
	return Open(data, password)
}
