package txn

import (
	"sort"

	"solanakit/internal/keys"
)

// Transaction is the mutable, append-only builder callers assemble before
// compilation. The caller must serialize access for the duration of
// Compile; the compiler assumes exclusive use of the instruction list.
type Transaction struct {
	Instructions    []Instruction
	RecentBlockhash keys.PublicKey
}

// Add appends an instruction.
func (tx *Transaction) Add(ins Instruction) {
	tx.Instructions = append(tx.Instructions, ins)
}

// SetRecentBlockhash records the blockhash the compiled message will carry.
func (tx *Transaction) SetRecentBlockhash(bh keys.PublicKey) {
	tx.RecentBlockhash = bh
}

// Compile flattens the instruction list into a compiled transaction:
// deduplicated account table, signer/writable ordering, fee payer at index
// zero, and per-instruction index references. signers[0] is the implicit
// fee payer.
func (tx *Transaction) Compile(signers []*keys.Keypair) (*CompiledTransaction, error) {
	if len(tx.Instructions) == 0 {
		return nil, ErrNoInstructions
	}
	if len(signers) == 0 {
		return nil, ErrNoSigners
	}

	// Collect account metas in first-occurrence order. A repeated key keeps
	// the flags of its first appearance; later conflicting signer/writable
	// flags are dropped. This mirrors the reference implementation's
	// documented behavior and is preserved for wire compatibility.
	var metas []AccountMeta
	seen := make(map[keys.PublicKey]struct{})
	for _, ins := range tx.Instructions {
		for _, acc := range ins.Accounts {
			if _, ok := seen[acc.PublicKey]; ok {
				continue
			}
			seen[acc.PublicKey] = struct{}{}
			metas = append(metas, acc)
		}
	}

	// Program ids join the table as read-only non-signers, first-seen order.
	for _, ins := range tx.Instructions {
		if _, ok := seen[ins.ProgramID]; ok {
			continue
		}
		seen[ins.ProgramID] = struct{}{}
		metas = append(metas, Meta(ins.ProgramID, false, false))
	}

	// Signers before non-signers, writable before read-only, then ascending
	// key bytes as the deterministic tie-break.
	sort.SliceStable(metas, func(i, j int) bool {
		if metas[i].IsSigner != metas[j].IsSigner {
			return metas[i].IsSigner
		}
		if metas[i].IsWritable != metas[j].IsWritable {
			return metas[i].IsWritable
		}
		return metas[i].PublicKey.Less(metas[j].PublicKey)
	})

	// The fee payer always occupies index zero as a writable signer,
	// whatever role the instructions gave it.
	feePayer := signers[0].PublicKey()
	idx := -1
	for i, m := range metas {
		if m.PublicKey == feePayer {
			idx = i
			break
		}
	}
	if idx >= 0 {
		metas = append(metas[:idx], metas[idx+1:]...)
	}
	metas = append([]AccountMeta{Meta(feePayer, true, true)}, metas...)

	var header MessageHeader
	var signedKeys, unsignedKeys []keys.PublicKey
	for _, m := range metas {
		if m.IsSigner {
			signedKeys = append(signedKeys, m.PublicKey)
			header.NumRequiredSignatures++
			if !m.IsWritable {
				header.NumReadonlySignedAccounts++
			}
		} else {
			unsignedKeys = append(unsignedKeys, m.PublicKey)
			if !m.IsWritable {
				header.NumReadonlyUnsignedAccounts++
			}
		}
	}
	accountKeys := append(signedKeys, unsignedKeys...)

	// Instruction account references are single bytes; a larger table
	// would alias indices instead of overflowing.
	if len(accountKeys) > 256 {
		return nil, ErrTooManyAccounts
	}

	indexOf := func(pk keys.PublicKey) int {
		for i, k := range accountKeys {
			if k == pk {
				return i
			}
		}
		return -1
	}

	compiled := make([]CompiledInstruction, 0, len(tx.Instructions))
	for _, ins := range tx.Instructions {
		indices := make([]uint8, 0, len(ins.Accounts))
		for _, acc := range ins.Accounts {
			i := indexOf(acc.PublicKey)
			if i < 0 {
				return nil, ErrUnknownAccount
			}
			indices = append(indices, uint8(i))
		}
		pi := indexOf(ins.ProgramID)
		if pi < 0 {
			return nil, ErrUnknownAccount
		}
		compiled = append(compiled, CompiledInstruction{
			ProgramIDIndex: uint8(pi),
			Accounts:       indices,
			Data:           ins.Data,
		})
	}

	return &CompiledTransaction{
		Header:          header,
		AccountKeys:     accountKeys,
		RecentBlockhash: tx.RecentBlockhash,
		Instructions:    compiled,
	}, nil
}
