// Package shortvec implements the compact-u16 length encoding used by the
// Solana transaction wire format. Values are emitted as a base-128 varint,
// little end first, capped at three bytes since encoded lengths fit in u16.
package shortvec

import "errors"

// MaxEncodedLen is the maximum number of bytes a length prefix occupies.
const MaxEncodedLen = 3

var (
	// ErrTruncated is returned when the input ends mid-prefix.
	ErrTruncated = errors.New("shortvec: truncated length prefix")

	// ErrTooLong is returned when a prefix runs past three bytes.
	ErrTooLong = errors.New("shortvec: length prefix exceeds three bytes")

	// ErrValueTooLarge is returned when encoding a value that does not fit u16.
	ErrValueTooLarge = errors.New("shortvec: value exceeds u16 range")
)

// EncodeLen appends the compact-u16 encoding of n to dst and returns the
// extended slice. n must fit in a u16.
func EncodeLen(dst []byte, n int) ([]byte, error) {
	if n < 0 || n > 0xFFFF {
		return dst, ErrValueTooLarge
	}
	v := uint32(n)
	for v >= 0x80 {
		dst = append(dst, byte(v&0x7F)|0x80)
		v >>= 7
	}
	return append(dst, byte(v)), nil
}

// DecodeLen reads a compact-u16 prefix from src. It returns the decoded
// value and the number of bytes consumed.
func DecodeLen(src []byte) (int, int, error) {
	var value uint32
	for i := 0; ; i++ {
		if i >= MaxEncodedLen {
			return 0, 0, ErrTooLong
		}
		if i >= len(src) {
			return 0, 0, ErrTruncated
		}
		b := src[i]
		value |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int(value), i + 1, nil
		}
	}
}
