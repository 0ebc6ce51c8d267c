package txn

import (
	"fmt"

	"solanakit/internal/keys"
	"solanakit/internal/shortvec"
)

// wireReader walks a byte slice with truncation checks.
type wireReader struct {
	buf []byte
	pos int
}

func (r *wireReader) remaining() int { return len(r.buf) - r.pos }

// clampCap bounds a wire-supplied element count by the number of
// elements the remaining buffer could possibly contain.
func clampCap(n, max int) int {
	if n > max {
		return max
	}
	return n
}

func (r *wireReader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *wireReader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrTruncated
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *wireReader) length() (int, error) {
	n, read, err := shortvec.DecodeLen(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += read
	return n, nil
}

// DeserializeTransaction decodes full wire bytes (signatures followed by a
// message) back into a CompiledTransaction. The decoded structure carries
// the message bytes as its frozen message, so re-serializing reproduces the
// input byte for byte.
func DeserializeTransaction(raw []byte) (*CompiledTransaction, error) {
	r := &wireReader{buf: raw}

	sigCount, err := r.length()
	if err != nil {
		return nil, fmt.Errorf("signature count: %w", err)
	}
	// Cap pre-allocations by what the buffer can actually hold; the
	// count prefixes come off the wire and can claim up to 2^16-1.
	sigs := make([][]byte, 0, clampCap(sigCount, r.remaining()/keys.SignatureLength))
	for i := 0; i < sigCount; i++ {
		sig, err := r.take(keys.SignatureLength)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		out := make([]byte, keys.SignatureLength)
		copy(out, sig)
		sigs = append(sigs, out)
	}

	messageStart := r.pos
	ct, err := deserializeMessage(r)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, ErrTrailingBytes
	}

	ct.Signatures = sigs
	ct.message = append([]byte(nil), raw[messageStart:]...)
	return ct, nil
}

// DeserializeMessage decodes message bytes (no signatures) into a
// CompiledTransaction whose frozen message is the input.
func DeserializeMessage(raw []byte) (*CompiledTransaction, error) {
	r := &wireReader{buf: raw}
	ct, err := deserializeMessage(r)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, ErrTrailingBytes
	}
	ct.message = append([]byte(nil), raw...)
	return ct, nil
}

func deserializeMessage(r *wireReader) (*CompiledTransaction, error) {
	header, err := r.take(3)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	ct := &CompiledTransaction{
		Header: MessageHeader{
			NumRequiredSignatures:       header[0],
			NumReadonlySignedAccounts:   header[1],
			NumReadonlyUnsignedAccounts: header[2],
		},
	}

	keyCount, err := r.length()
	if err != nil {
		return nil, fmt.Errorf("key count: %w", err)
	}
	ct.AccountKeys = make([]keys.PublicKey, 0, clampCap(keyCount, r.remaining()/keys.PublicKeyLength))
	for i := 0; i < keyCount; i++ {
		raw, err := r.take(keys.PublicKeyLength)
		if err != nil {
			return nil, fmt.Errorf("account key %d: %w", i, err)
		}
		pk, err := keys.FromBytes(raw)
		if err != nil {
			return nil, err
		}
		ct.AccountKeys = append(ct.AccountKeys, pk)
	}

	bh, err := r.take(keys.PublicKeyLength)
	if err != nil {
		return nil, fmt.Errorf("blockhash: %w", err)
	}
	copy(ct.RecentBlockhash[:], bh)

	insCount, err := r.length()
	if err != nil {
		return nil, fmt.Errorf("instruction count: %w", err)
	}
	// Every instruction occupies at least 3 bytes on the wire.
	ct.Instructions = make([]CompiledInstruction, 0, clampCap(insCount, r.remaining()/3))
	for i := 0; i < insCount; i++ {
		programIdx, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("instruction %d program index: %w", i, err)
		}

		accCount, err := r.length()
		if err != nil {
			return nil, fmt.Errorf("instruction %d account count: %w", i, err)
		}
		accounts, err := r.take(accCount)
		if err != nil {
			return nil, fmt.Errorf("instruction %d accounts: %w", i, err)
		}

		dataLen, err := r.length()
		if err != nil {
			return nil, fmt.Errorf("instruction %d data length: %w", i, err)
		}
		data, err := r.take(dataLen)
		if err != nil {
			return nil, fmt.Errorf("instruction %d data: %w", i, err)
		}

		ct.Instructions = append(ct.Instructions, CompiledInstruction{
			ProgramIDIndex: programIdx,
			Accounts:       append([]uint8(nil), accounts...),
			Data:           append([]byte(nil), data...),
		})
	}

	return ct, nil
}
