// Package txn models Solana transactions: an uncompiled builder of
// instructions with explicit account roles, the compiler that flattens it
// into a canonical account table, and the binary wire codec validators
// accept.
package txn

import "solanakit/internal/keys"

// AccountMeta describes one account's role within an instruction. Two metas
// are the same account when their public keys match; the role flags are not
// part of identity.
type AccountMeta struct {
	PublicKey  keys.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Meta builds an AccountMeta.
func Meta(pk keys.PublicKey, signer, writable bool) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: signer, IsWritable: writable}
}

// Instruction is one uncompiled program invocation: the program to call,
// the accounts it touches in order, and opaque input data.
type Instruction struct {
	ProgramID keys.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// CompiledInstruction references accounts by index into the shared account
// table of a compiled message.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// MessageHeader carries the three account counts that prefix a compiled
// message.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}
