package shortvec

import (
	"bytes"
	"testing"
)

func TestEncodeLen_KnownValues(t *testing.T) {
	cases := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xFF, 0x01}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{65535, []byte{0xFF, 0xFF, 0x03}},
	}

	for _, c := range cases {
		got, err := EncodeLen(nil, c.n)
		if err != nil {
			t.Fatalf("EncodeLen(%d): %v", c.n, err)
		}
		if !bytes.Equal(got, c.want) {
			t.Errorf("EncodeLen(%d) = %x, want %x", c.n, got, c.want)
		}
	}
}

func TestEncodeLen_OutOfRange(t *testing.T) {
	if _, err := EncodeLen(nil, 65536); err != ErrValueTooLarge {
		t.Errorf("expected ErrValueTooLarge, got %v", err)
	}
	if _, err := EncodeLen(nil, -1); err != ErrValueTooLarge {
		t.Errorf("expected ErrValueTooLarge for negative, got %v", err)
	}
}

func TestDecodeLen_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 5, 127, 128, 129, 255, 256, 16383, 16384, 65535} {
		enc, err := EncodeLen(nil, n)
		if err != nil {
			t.Fatalf("EncodeLen(%d): %v", n, err)
		}

		// Trailing garbage must not affect decoding.
		enc = append(enc, 0xDE, 0xAD)

		got, read, err := DecodeLen(enc)
		if err != nil {
			t.Fatalf("DecodeLen(%d): %v", n, err)
		}
		if got != n {
			t.Errorf("DecodeLen round trip: got %d, want %d", got, n)
		}
		if read != len(enc)-2 {
			t.Errorf("DecodeLen(%d) consumed %d bytes, want %d", n, read, len(enc)-2)
		}
	}
}

func TestDecodeLen_Truncated(t *testing.T) {
	if _, _, err := DecodeLen(nil); err != ErrTruncated {
		t.Errorf("expected ErrTruncated for empty input, got %v", err)
	}
	if _, _, err := DecodeLen([]byte{0x80}); err != ErrTruncated {
		t.Errorf("expected ErrTruncated for dangling continuation, got %v", err)
	}
}

func TestDecodeLen_TooLong(t *testing.T) {
	if _, _, err := DecodeLen([]byte{0x80, 0x80, 0x80, 0x01}); err != ErrTooLong {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}
