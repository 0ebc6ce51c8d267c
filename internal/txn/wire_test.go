package txn

import (
	"bytes"
	"errors"
	"testing"

	"solanakit/internal/keys"
)

func compileSimple(t *testing.T, payer *keys.Keypair) *CompiledTransaction {
	t.Helper()

	var tx Transaction
	tx.SetRecentBlockhash(testKey(0xBB))
	tx.Add(Instruction{
		ProgramID: testKey(0xAA),
		Accounts: []AccountMeta{
			Meta(payer.PublicKey(), true, true),
			Meta(testKey(0x10), false, true),
		},
		Data: []byte{0x02, 0x00, 0x00, 0x00},
	})

	ct, err := tx.Compile([]*keys.Keypair{payer})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return ct
}

func TestSerializeMessage_Layout(t *testing.T) {
	payer := testKeypair(t, 1)
	ct := compileSimple(t, payer)

	msg, err := ct.SerializeMessage()
	if err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}

	// header(3) + keyCount(1) + 3 keys + blockhash(32)
	// + insCount(1) + programIdx(1) + accCount(1) + 2 indices + dataLen(1) + 4 data
	wantLen := 3 + 1 + 3*32 + 32 + 1 + 1 + 1 + 2 + 1 + 4
	if len(msg) != wantLen {
		t.Fatalf("message is %d bytes, want %d", len(msg), wantLen)
	}

	if msg[0] != 1 || msg[1] != 0 || msg[2] != 1 {
		t.Errorf("header bytes = %v, want [1 0 1]", msg[:3])
	}
	if msg[3] != 3 {
		t.Errorf("key count byte = %d, want 3", msg[3])
	}
	if !bytes.Equal(msg[4:36], payer.PublicKey().Bytes()) {
		t.Error("first table key is not the fee payer")
	}
}

func TestSerializeMessage_Twice(t *testing.T) {
	ct := compileSimple(t, testKeypair(t, 1))

	if _, err := ct.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}
	first := append([]byte(nil), ct.Message()...)

	if _, err := ct.SerializeMessage(); !errors.Is(err, ErrAlreadySerialized) {
		t.Errorf("expected ErrAlreadySerialized, got %v", err)
	}
	if !bytes.Equal(ct.Message(), first) {
		t.Error("failed re-serialization must not mutate the frozen message")
	}
}

func TestSign_BeforeSerialize(t *testing.T) {
	payer := testKeypair(t, 1)
	ct := compileSimple(t, payer)

	if err := ct.Sign([]*keys.Keypair{payer}); !errors.Is(err, ErrNotSerialized) {
		t.Errorf("expected ErrNotSerialized, got %v", err)
	}
	if len(ct.Signatures) != 0 {
		t.Error("failed sign must not leave signatures behind")
	}
}

func TestSign_TableOrder(t *testing.T) {
	payer := testKeypair(t, 1)
	other := testKeypair(t, 2)

	var tx Transaction
	tx.SetRecentBlockhash(testKey(0xBB))
	tx.Add(Instruction{
		ProgramID: testKey(0xAA),
		Accounts: []AccountMeta{
			Meta(other.PublicKey(), true, false),
			Meta(payer.PublicKey(), true, true),
		},
	})

	ct, err := tx.Compile([]*keys.Keypair{payer, other})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	msg, err := ct.SerializeMessage()
	if err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}

	// Pass signers in the wrong order; signatures must still follow the
	// account table.
	if err := ct.Sign([]*keys.Keypair{other, payer}); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if len(ct.Signatures) != 2 {
		t.Fatalf("got %d signatures, want 2", len(ct.Signatures))
	}
	if !payer.Verify(msg, ct.Signatures[0]) {
		t.Error("signature 0 must be the fee payer's")
	}
	if !other.Verify(msg, ct.Signatures[1]) {
		t.Error("signature 1 must be the second table signer's")
	}
}

func TestSign_MissingSigner(t *testing.T) {
	payer := testKeypair(t, 1)
	other := testKeypair(t, 2)

	var tx Transaction
	tx.Add(Instruction{
		ProgramID: testKey(0xAA),
		Accounts:  []AccountMeta{Meta(other.PublicKey(), true, false)},
	})

	ct, err := tx.Compile([]*keys.Keypair{payer, other})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := ct.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}

	// Only the payer's keypair is supplied; the table requires both.
	if err := ct.Sign([]*keys.Keypair{payer}); !errors.Is(err, ErrMissingSigner) {
		t.Errorf("expected ErrMissingSigner, got %v", err)
	}
}

func TestSign_Twice(t *testing.T) {
	payer := testKeypair(t, 1)
	ct := compileSimple(t, payer)

	if _, err := ct.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}
	if err := ct.Sign([]*keys.Keypair{payer}); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := ct.Sign([]*keys.Keypair{payer}); !errors.Is(err, ErrAlreadySigned) {
		t.Errorf("expected ErrAlreadySigned, got %v", err)
	}
}

func TestSerialize_RequiresMessage(t *testing.T) {
	ct := compileSimple(t, testKeypair(t, 1))
	if _, err := ct.Serialize(); !errors.Is(err, ErrNotSerialized) {
		t.Errorf("expected ErrNotSerialized, got %v", err)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	payer := testKeypair(t, 1)
	ct := compileSimple(t, payer)

	if _, err := ct.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}
	if err := ct.Sign([]*keys.Keypair{payer}); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	wire, err := ct.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	decoded, err := DeserializeTransaction(wire)
	if err != nil {
		t.Fatalf("DeserializeTransaction: %v", err)
	}

	if decoded.Header != ct.Header {
		t.Errorf("header mismatch: %+v vs %+v", decoded.Header, ct.Header)
	}
	if len(decoded.AccountKeys) != len(ct.AccountKeys) {
		t.Fatal("account table length mismatch")
	}
	for i := range decoded.AccountKeys {
		if decoded.AccountKeys[i] != ct.AccountKeys[i] {
			t.Errorf("account key %d mismatch", i)
		}
	}
	if decoded.RecentBlockhash != ct.RecentBlockhash {
		t.Error("blockhash mismatch")
	}
	if len(decoded.Instructions) != len(ct.Instructions) {
		t.Fatal("instruction count mismatch")
	}
	for i := range decoded.Instructions {
		got, want := decoded.Instructions[i], ct.Instructions[i]
		if got.ProgramIDIndex != want.ProgramIDIndex {
			t.Errorf("instruction %d program index mismatch", i)
		}
		if !bytes.Equal(got.Accounts, want.Accounts) {
			t.Errorf("instruction %d account indices mismatch", i)
		}
		if !bytes.Equal(got.Data, want.Data) {
			t.Errorf("instruction %d data mismatch", i)
		}
	}
	if len(decoded.Signatures) != 1 || !bytes.Equal(decoded.Signatures[0], ct.Signatures[0]) {
		t.Error("signatures mismatch")
	}

	// Re-serializing the decoded structure reproduces the wire bytes.
	reWire, err := decoded.Serialize()
	if err != nil {
		t.Fatalf("re-Serialize: %v", err)
	}
	if !bytes.Equal(reWire, wire) {
		t.Error("round trip does not reproduce wire bytes")
	}
}

func TestDeserialize_Truncated(t *testing.T) {
	payer := testKeypair(t, 1)
	ct := compileSimple(t, payer)

	if _, err := ct.SerializeMessage(); err != nil {
		t.Fatalf("SerializeMessage: %v", err)
	}
	if err := ct.Sign([]*keys.Keypair{payer}); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	wire, err := ct.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	for _, cut := range []int{1, len(wire) / 2, len(wire) - 1} {
		if _, err := DeserializeTransaction(wire[:cut]); !errors.Is(err, ErrTruncated) {
			t.Errorf("cut at %d: expected ErrTruncated, got %v", cut, err)
		}
	}

	if _, err := DeserializeTransaction(append(append([]byte(nil), wire...), 0x00)); !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestDeserialize_OversizedCountPrefix(t *testing.T) {
	// A few bytes claiming ~2M entries must fail on the first missing
	// element, not allocate room for the claimed count up front.
	hugeCount := []byte{0xFF, 0xFF, 0x7F} // compact-u16 for 2097151

	msg := append([]byte{1, 0, 0}, hugeCount...) // header, then key count
	if _, err := DeserializeMessage(msg); !errors.Is(err, ErrTruncated) {
		t.Errorf("oversized key count: expected ErrTruncated, got %v", err)
	}

	wire := append([]byte(nil), hugeCount...) // signature count
	if _, err := DeserializeTransaction(wire); !errors.Is(err, ErrTruncated) {
		t.Errorf("oversized signature count: expected ErrTruncated, got %v", err)
	}

	// The pre-allocation hint is bounded by the buffer, not the prefix.
	if got := clampCap(2097151, 0); got != 0 {
		t.Errorf("clampCap(2097151, 0) = %d, want 0", got)
	}
	if got := clampCap(3, 16); got != 3 {
		t.Errorf("clampCap(3, 16) = %d, want 3", got)
	}
}
