// Package keys provides Solana identities: fixed 32-byte public keys,
// ed25519 keypairs, and program-derived address (PDA) search.
package keys

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Sizes of Solana key and signature material.
const (
	PublicKeyLength = 32
	SecretKeyLength = 64
	SignatureLength = 64

	// MaxSeedLength is the maximum byte length of a single PDA seed.
	MaxSeedLength = 32
)

// pdaMarker is appended after the seeds and program id before hashing a
// program-derived address candidate.
const pdaMarker = "ProgramDerivedAddress"

// PublicKey is a 32-byte account address. The zero value is a sentinel and
// never a valid on-chain identity.
type PublicKey [PublicKeyLength]byte

// FromBase58 parses a base-58 encoded public key. The text must decode to
// exactly 32 bytes.
func FromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode base58 key: %w", err)
	}
	if len(raw) != PublicKeyLength {
		return pk, fmt.Errorf("%w: decoded %d bytes, want %d", ErrInvalidLength, len(raw), PublicKeyLength)
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustFromBase58 parses a base-58 key and panics on failure. For well-known
// compile-time constants only.
func MustFromBase58(s string) PublicKey {
	pk, err := FromBase58(s)
	if err != nil {
		panic(fmt.Sprintf("keys: bad well-known key %q: %v", s, err))
	}
	return pk
}

// FromBytes copies a raw 32-byte key.
func FromBytes(raw []byte) (PublicKey, error) {
	var pk PublicKey
	if len(raw) != PublicKeyLength {
		return pk, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(raw), PublicKeyLength)
	}
	copy(pk[:], raw)
	return pk, nil
}

// Base58 returns the base-58 representation of the key.
func (pk PublicKey) Base58() string {
	return base58.Encode(pk[:])
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return pk.Base58()
}

// Bytes returns a copy of the key bytes.
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeyLength)
	copy(out, pk[:])
	return out
}

// Equal reports exact byte equality.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk == other
}

// Less orders keys lexicographically by byte value.
func (pk PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(pk[:], other[:]) < 0
}

// IsZero reports whether the key is the all-zero sentinel.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// IsOnCurve reports whether the bytes decompress to a canonical point on
// the ed25519 curve. Program-derived addresses must fail this check.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// CreateProgramAddress derives a candidate program address from seeds and a
// program id. The candidate is sha256(seeds || programID || marker) and is
// only valid when it falls off the ed25519 curve; an on-curve candidate
// yields ErrOnCurve and the caller should vary the seeds.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return PublicKey{}, fmt.Errorf("%w: seed is %d bytes", ErrSeedTooLong, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var pk PublicKey
	copy(pk[:], h.Sum(nil))

	if pk.IsOnCurve() {
		return PublicKey{}, ErrOnCurve
	}
	return pk, nil
}

// FindProgramAddress searches for a valid program address by appending a
// single nonce byte, starting at 255 and decrementing, until the derived
// candidate falls off the curve. Returns the address and the nonce that
// produced it.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	seedsWithNonce := make([][]byte, len(seeds), len(seeds)+1)
	copy(seedsWithNonce, seeds)

	for nonce := uint8(255); nonce != 0; nonce-- {
		candidate, err := CreateProgramAddress(append(seedsWithNonce, []byte{nonce}), programID)
		if err == nil {
			return candidate, nonce, nil
		}
		if err != ErrOnCurve {
			return PublicKey{}, 0, err
		}
	}
	return PublicKey{}, 0, ErrNoViableAddress
}
