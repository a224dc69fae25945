// Package keys manages caller signing keys: BIP39 mnemonics, BIP32
// derivation of caller keys, and password-encrypted keystore files.
//
// Key hierarchy: m/44'/236'/{account}'/0/{index}. The caller identity of a
// key is the Hash160 of its compressed public key.
package keys

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/libfactory-go/ident"
)

// BIP44 path constants.
const (
	PurposeBIP44 = 44
	CoinType     = 236
	Hardened     = 0x80000000
	MaxIndex     = 1<<31 - 1
)

// GenerateMnemonic creates a new BIP39 mnemonic of 12 or 24 words.
func GenerateMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidWordCount, words)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("keys: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("keys: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// SeedFromMnemonic derives the 64-byte BIP39 seed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("keys: derive seed: %w", err)
	}
	return seed, nil
}

// Key is a derived caller key.
type Key struct {
	Private  *ec.PrivateKey `json:"-"`
	Public   *ec.PublicKey  `json:"-"`
	Identity ident.Identity `json:"identity"`
	Path     string         `json:"path"`
}

// Keyring derives caller keys from a seed.
type Keyring struct {
	master *bip32.ExtendedKey
}

// NewKeyring creates a Keyring from a BIP39 seed.
func NewKeyring(seed []byte) (*Keyring, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	master, err := bip32.NewMaster(seed, &chaincfg.MainNet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Keyring{master: master}, nil
}

// CallerKey derives m/44'/236'/account'/0/index.
func (k *Keyring) CallerKey(account, index uint32) (*Key, error) {
	if account > MaxIndex || index > MaxIndex {
		return nil, ErrIndexOutOfRange
	}
	path := []uint32{PurposeBIP44 + Hardened, CoinType + Hardened, account + Hardened, 0, index}
	cur := k.master
	for _, child := range path {
		next, err := cur.Child(child)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
		}
		cur = next
	}
	priv, err := cur.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract private key: %w", ErrDerivationFailed, err)
	}
	pub := priv.PubKey()
	return &Key{
		Private:  priv,
		Public:   pub,
		Identity: ident.FromPubKey(pub),
		Path:     fmt.Sprintf("m/44'/236'/%d'/0/%d", account, index),
	}, nil
}
