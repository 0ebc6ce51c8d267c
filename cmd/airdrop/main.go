package main

import (
	"context"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"time"

	"solanakit/internal/client"
	"solanakit/internal/keys"
	"solanakit/internal/observability"
	"solanakit/internal/storage"
	"solanakit/internal/storage/memory"
	"solanakit/internal/storage/migrations"
	pgstore "solanakit/internal/storage/postgres"
	"solanakit/internal/token"
	"solanakit/internal/txn"
)

func main() {
	endpoint := flag.String("endpoint", client.Devnet.APIURL(), "JSON-RPC HTTP endpoint (test clusters only)")
	keypairPath := flag.String("keypair", "", "Path to a 64-byte keypair file (generated if empty)")
	lamports := flag.Uint64("lamports", keys.LamportsPerSOL, "Lamports to request")
	mint := flag.String("mint", "", "Mint address: also create the associated token account")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the submission journal")
	timeout := flag.Duration("timeout", 2*time.Minute, "Total timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[airdrop] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	payer := loadKeypair(logger, *keypairPath)
	logger.Printf("Fee payer: %s", payer.PublicKey())

	journal := openJournal(ctx, logger, *postgresDSN)

	conn := client.New(*endpoint, client.WithCommitment(client.CommitmentConfirmed), client.WithLogger(logger))
	defer conn.Close()

	sig, err := conn.RequestAirdrop(ctx, payer.PublicKey(), *lamports)
	if err != nil {
		logger.Fatalf("requestAirdrop: %v", err)
	}
	logger.Printf("Airdrop requested: %s", sig)

	waitForBalance(ctx, logger, conn, payer.PublicKey(), *lamports)

	if *mint == "" {
		return
	}

	mintKey, err := keys.FromBase58(*mint)
	if err != nil {
		logger.Fatalf("Invalid mint address %q: %v", *mint, err)
	}

	ata, err := createTokenAccount(ctx, logger, conn, journal, payer, mintKey)
	if err != nil {
		logger.Fatalf("Create token account: %v", err)
	}
	logger.Printf("Associated token account: %s", ata)
}

// loadKeypair reads the keypair file, or generates a fresh one when no
// path was given.
func loadKeypair(logger *log.Logger, path string) *keys.Keypair {
	if path == "" {
		kp, err := keys.NewKeypair()
		if err != nil {
			logger.Fatalf("Generate keypair: %v", err)
		}
		logger.Print("Generated ephemeral keypair")
		return kp
	}

	kp, err := keys.KeypairFromFile(path)
	if err != nil {
		logger.Fatalf("Load keypair from %s: %v", path, err)
	}
	return kp
}

// openJournal selects the submission journal backend: PostgreSQL when a
// DSN is given, in-memory otherwise.
func openJournal(ctx context.Context, logger *log.Logger, dsn string) storage.SubmissionJournal {
	if dsn == "" {
		return memory.NewSubmissionJournal()
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Run migrations: %v", err)
	}
	return pgstore.NewSubmissionJournal(pool)
}

// waitForBalance polls until the airdropped lamports land or the
// context expires.
func waitForBalance(ctx context.Context, logger *log.Logger, conn *client.Connection, pk keys.PublicKey, want uint64) {
	for {
		balance, err := conn.GetBalance(ctx, pk)
		if err != nil {
			logger.Printf("getBalance: %v", err)
		} else if balance >= want {
			logger.Printf("Balance: %d lamports", balance)
			return
		}

		select {
		case <-ctx.Done():
			logger.Fatalf("Timed out waiting for airdrop: %v", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
}

// createTokenAccount builds, signs, and submits the associated token
// account creation, journaling the submission.
func createTokenAccount(ctx context.Context, logger *log.Logger, conn *client.Connection, journal storage.SubmissionJournal, payer *keys.Keypair, mint keys.PublicKey) (keys.PublicKey, error) {
	ata, err := token.AssociatedTokenAddress(mint, payer.PublicKey(), false)
	if err != nil {
		return keys.PublicKey{}, err
	}
	ins := token.CreateAssociatedTokenAccountInstruction(payer.PublicKey(), ata, payer.PublicKey(), mint)

	blockhash, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		return keys.PublicKey{}, err
	}

	var tx txn.Transaction
	tx.Add(ins)
	tx.SetRecentBlockhash(blockhash)

	compiled, err := tx.Compile([]*keys.Keypair{payer})
	if err != nil {
		return keys.PublicKey{}, err
	}
	if _, err := compiled.SerializeMessage(); err != nil {
		return keys.PublicKey{}, err
	}
	if err := compiled.Sign([]*keys.Keypair{payer}); err != nil {
		return keys.PublicKey{}, err
	}

	wire, err := compiled.Serialize()
	if err != nil {
		return keys.PublicKey{}, err
	}

	sig, err := conn.SendTransaction(ctx, compiled)
	if err != nil {
		observability.RecordSubmission("failed")
		return keys.PublicKey{}, err
	}
	observability.RecordSubmission("accepted")
	logger.Printf("Submitted: %s", sig)

	entry := &storage.Submission{
		Signature:       sig,
		FeePayer:        payer.PublicKey().Base58(),
		RecentBlockhash: blockhash.Base58(),
		NumSignatures:   len(compiled.Signatures),
		Raw:             base64.StdEncoding.EncodeToString(wire),
		SubmittedAt:     time.Now().Unix(),
	}
	if err := journal.Record(ctx, entry); err != nil {
		logger.Printf("Journal submission %s: %v", sig, err)
	}

	return ata, nil
}
