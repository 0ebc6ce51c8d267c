package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
)

// Keypair holds a 64-byte ed25519 secret key and its public key. The secret
// material is owned by the Keypair and never copied implicitly; pass
// pointers.
type Keypair struct {
	secret ed25519.PrivateKey
	pub    PublicKey
}

// NewKeypair generates a random keypair.
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return keypairFromPrivate(priv)
}

// KeypairFromSeed deterministically expands a 32-byte seed into a keypair,
// per RFC 8032.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, want %d", ErrInvalidLength, len(seed), ed25519.SeedSize)
	}
	return keypairFromPrivate(ed25519.NewKeyFromSeed(seed))
}

// KeypairFromBytes reconstructs a keypair from a 64-byte secret key
// (seed || public key).
func KeypairFromBytes(secret []byte) (*Keypair, error) {
	if len(secret) != SecretKeyLength {
		return nil, fmt.Errorf("%w: secret key is %d bytes, want %d", ErrInvalidLength, len(secret), SecretKeyLength)
	}
	priv := make(ed25519.PrivateKey, SecretKeyLength)
	copy(priv, secret)

	// The trailing 32 bytes must be the public key the seed expands to.
	derived := ed25519.NewKeyFromSeed(priv.Seed())
	if !derived.Public().(ed25519.PublicKey).Equal(priv.Public().(ed25519.PublicKey)) {
		return nil, ErrInvalidKey
	}
	return keypairFromPrivate(priv)
}

// KeypairFromFile loads a keypair from a file containing exactly 64 raw
// secret-key bytes.
func KeypairFromFile(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	if len(raw) != SecretKeyLength {
		return nil, fmt.Errorf("%w: keypair file holds %d bytes, want %d", ErrInvalidLength, len(raw), SecretKeyLength)
	}
	return KeypairFromBytes(raw)
}

func keypairFromPrivate(priv ed25519.PrivateKey) (*Keypair, error) {
	pub, err := FromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Keypair{secret: priv, pub: pub}, nil
}

// PublicKey returns the keypair's public key.
func (kp *Keypair) PublicKey() PublicKey {
	return kp.pub
}

// SecretBytes returns a copy of the 64-byte secret key.
func (kp *Keypair) SecretBytes() []byte {
	out := make([]byte, SecretKeyLength)
	copy(out, kp.secret)
	return out
}

// Sign produces a deterministic detached ed25519 signature over message.
func (kp *Keypair) Sign(message []byte) ([]byte, error) {
	if len(kp.secret) != SecretKeyLength {
		return nil, ErrInvalidKey
	}
	return ed25519.Sign(kp.secret, message), nil
}

// Verify reports whether sig is a valid signature over message by this
// keypair's public key.
func (kp *Keypair) Verify(message, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(kp.pub[:]), message, sig)
}
