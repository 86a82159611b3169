package sign

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// KeyPair bundles a secp256k1 private key with its serialized forms, the
// shape a module author persists to disk and hands to Sign.
type KeyPair struct {
	Private *btcec.PrivateKey
}

// GenerateKeyPair produces a fresh signing key, mirroring the composite
// crypto-suite constructor pattern of wiring one concrete signer behind a
// small factory function.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("sign: generate key: %w", err)
	}
	return &KeyPair{Private: key}, nil
}

// ParsePrivateKey decodes a raw 32-byte secp256k1 scalar into a KeyPair.
func ParsePrivateKey(raw []byte) (*KeyPair, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("sign: private key must be 32 bytes, got %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return &KeyPair{Private: key}, nil
}

// Bytes returns the raw 32-byte scalar of the private key.
func (k *KeyPair) Bytes() []byte {
	return k.Private.Serialize()
}

// PublicKeyBytes returns the compressed SEC1 public key, the form embedded
// in a signed module's metadata.
func (k *KeyPair) PublicKeyBytes() []byte {
	return k.Private.PubKey().SerializeCompressed()
}
