package txn

import (
	"fmt"

	"solanakit/internal/keys"
	"solanakit/internal/shortvec"
)

// CompiledTransaction is the flattened form ready for wire serialization.
// Its lifecycle is one-way: SerializeMessage freezes the message bytes,
// Sign appends signatures over them, Serialize emits the full wire
// transaction. Re-running an earlier step fails rather than corrupting
// state.
type CompiledTransaction struct {
	Header          MessageHeader
	AccountKeys     []keys.PublicKey
	RecentBlockhash keys.PublicKey
	Instructions    []CompiledInstruction
	Signatures      [][]byte

	message []byte
}

// Message returns the frozen message bytes, or nil before SerializeMessage.
func (ct *CompiledTransaction) Message() []byte {
	return ct.message
}

// SerializeMessage produces and freezes the canonical message bytes:
// header, account table, blockhash, and instructions, with compact-u16
// length prefixes. Calling it twice is a contract violation.
func (ct *CompiledTransaction) SerializeMessage() ([]byte, error) {
	if len(ct.message) > 0 {
		return nil, ErrAlreadySerialized
	}
	if ct.Header.NumRequiredSignatures == 0 {
		return nil, ErrNoSigners
	}

	buf := make([]byte, 0, keys.PacketDataSize)
	buf = append(buf,
		ct.Header.NumRequiredSignatures,
		ct.Header.NumReadonlySignedAccounts,
		ct.Header.NumReadonlyUnsignedAccounts,
	)

	var err error
	if buf, err = shortvec.EncodeLen(buf, len(ct.AccountKeys)); err != nil {
		return nil, fmt.Errorf("encode key count: %w", err)
	}
	for _, key := range ct.AccountKeys {
		buf = append(buf, key[:]...)
	}

	buf = append(buf, ct.RecentBlockhash[:]...)

	if buf, err = shortvec.EncodeLen(buf, len(ct.Instructions)); err != nil {
		return nil, fmt.Errorf("encode instruction count: %w", err)
	}
	for _, ins := range ct.Instructions {
		buf = append(buf, ins.ProgramIDIndex)
		if buf, err = shortvec.EncodeLen(buf, len(ins.Accounts)); err != nil {
			return nil, fmt.Errorf("encode account index count: %w", err)
		}
		buf = append(buf, ins.Accounts...)
		if buf, err = shortvec.EncodeLen(buf, len(ins.Data)); err != nil {
			return nil, fmt.Errorf("encode data length: %w", err)
		}
		buf = append(buf, ins.Data...)
	}

	ct.message = buf
	return buf, nil
}

// Sign appends one 64-byte signature per required signer, in the order the
// signer keys occupy the account table. The caller's signer order does not
// matter; a required table signer without a matching keypair fails with
// ErrMissingSigner. Signing before the message is serialized, or signing
// twice, is a contract violation.
func (ct *CompiledTransaction) Sign(signers []*keys.Keypair) error {
	if len(ct.message) == 0 {
		return ErrNotSerialized
	}
	if len(ct.Signatures) > 0 {
		return ErrAlreadySigned
	}

	byKey := make(map[keys.PublicKey]*keys.Keypair, len(signers))
	for _, kp := range signers {
		byKey[kp.PublicKey()] = kp
	}

	required := int(ct.Header.NumRequiredSignatures)
	if required > len(ct.AccountKeys) {
		return ErrUnknownAccount
	}

	sigs := make([][]byte, 0, required)
	for _, signerKey := range ct.AccountKeys[:required] {
		kp, ok := byKey[signerKey]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, signerKey)
		}
		sig, err := kp.Sign(ct.message)
		if err != nil {
			return fmt.Errorf("sign message: %w", err)
		}
		sigs = append(sigs, sig)
	}

	ct.Signatures = sigs
	return nil
}

// Serialize emits the full wire transaction: signature count, signatures,
// then the frozen message bytes. The message must be serialized first.
func (ct *CompiledTransaction) Serialize() ([]byte, error) {
	if len(ct.message) == 0 {
		return nil, ErrNotSerialized
	}

	buf, err := shortvec.EncodeLen(nil, len(ct.Signatures))
	if err != nil {
		return nil, fmt.Errorf("encode signature count: %w", err)
	}
	for i, sig := range ct.Signatures {
		if len(sig) != keys.SignatureLength {
			return nil, fmt.Errorf("signature %d is %d bytes, want %d", i, len(sig), keys.SignatureLength)
		}
		buf = append(buf, sig...)
	}
	return append(buf, ct.message...), nil
}
