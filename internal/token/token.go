// Package token holds helpers for the SPL token and associated token
// account programs.
package token

import (
	"context"
	"errors"

	"solanakit/internal/client"
	"solanakit/internal/keys"
	"solanakit/internal/txn"
)

// ErrOwnerOffCurve is returned when the owner of an associated token
// account is not an ed25519 curve point and off-curve owners were not
// explicitly allowed. Only program-derived owners live off the curve.
var ErrOwnerOffCurve = errors.New("token: owner is off curve")

// AssociatedTokenAddress derives the canonical token account for a
// mint and owner. The address is the program-derived address of
// [owner, token program, mint] under the associated token program.
// Owners are normally wallet keys, which sit on the curve; pass
// allowOwnerOffCurve to derive for a PDA owner.
func AssociatedTokenAddress(mint, owner keys.PublicKey, allowOwnerOffCurve bool) (keys.PublicKey, error) {
	if !allowOwnerOffCurve && !owner.IsOnCurve() {
		return keys.PublicKey{}, ErrOwnerOffCurve
	}

	addr, _, err := keys.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			keys.TokenProgram.Bytes(),
			mint.Bytes(),
		},
		keys.AssociatedTokenProgram,
	)
	if err != nil {
		return keys.PublicKey{}, err
	}
	return addr, nil
}

// CreateAssociatedTokenAccountInstruction builds the instruction that
// creates ata, the owner's associated token account for mint. The
// payer funds the rent and signs; the program re-derives and checks
// the address itself, so the instruction carries no data.
func CreateAssociatedTokenAccountInstruction(payer, ata, owner, mint keys.PublicKey) txn.Instruction {
	return txn.Instruction{
		ProgramID: keys.AssociatedTokenProgram,
		Accounts: []txn.AccountMeta{
			txn.Meta(payer, true, true),
			txn.Meta(ata, false, true),
			txn.Meta(owner, false, false),
			txn.Meta(mint, false, false),
			txn.Meta(keys.SystemProgram, false, false),
			txn.Meta(keys.TokenProgram, false, false),
		},
	}
}

// CreateAssociatedTokenAccount creates the owner's associated token
// account for mint, paying rent from payer. Returns the derived
// address and the submission signature.
func CreateAssociatedTokenAccount(ctx context.Context, conn *client.Connection, payer *keys.Keypair, mint, owner keys.PublicKey) (keys.PublicKey, string, error) {
	ata, err := AssociatedTokenAddress(mint, owner, false)
	if err != nil {
		return keys.PublicKey{}, "", err
	}

	var tx txn.Transaction
	tx.Add(CreateAssociatedTokenAccountInstruction(payer.PublicKey(), ata, owner, mint))

	sig, err := conn.SignAndSendTransaction(ctx, &tx, payer)
	if err != nil {
		return keys.PublicKey{}, "", err
	}
	return ata, sig, nil
}
