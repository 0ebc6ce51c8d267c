package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solanakit/internal/storage"
)

// SubmissionJournal implements storage.SubmissionJournal using PostgreSQL.
type SubmissionJournal struct {
	pool *Pool
}

// NewSubmissionJournal creates a new SubmissionJournal.
func NewSubmissionJournal(pool *Pool) *SubmissionJournal {
	return &SubmissionJournal{pool: pool}
}

// Compile-time interface check.
var _ storage.SubmissionJournal = (*SubmissionJournal)(nil)

// Record adds a submission. Returns ErrDuplicateKey if the signature
// was already journaled.
func (j *SubmissionJournal) Record(ctx context.Context, s *storage.Submission) error {
	if s == nil || s.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO submissions (
			signature, fee_payer, recent_blockhash, num_signatures, raw, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := j.pool.Exec(ctx, query,
		s.Signature,
		s.FeePayer,
		s.RecentBlockhash,
		s.NumSignatures,
		s.Raw,
		s.SubmittedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// GetBySignature retrieves a submission by its primary signature.
func (j *SubmissionJournal) GetBySignature(ctx context.Context, signature string) (*storage.Submission, error) {
	query := `
		SELECT signature, fee_payer, recent_blockhash, num_signatures, raw, submitted_at
		FROM submissions
		WHERE signature = $1
	`

	var s storage.Submission
	err := j.pool.QueryRow(ctx, query, signature).Scan(
		&s.Signature,
		&s.FeePayer,
		&s.RecentBlockhash,
		&s.NumSignatures,
		&s.Raw,
		&s.SubmittedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &s, nil
}

// ListRecent retrieves up to limit submissions, newest first.
func (j *SubmissionJournal) ListRecent(ctx context.Context, limit int) ([]*storage.Submission, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT signature, fee_payer, recent_blockhash, num_signatures, raw, submitted_at
		FROM submissions
		ORDER BY submitted_at DESC, signature ASC
		LIMIT $1
	`

	rows, err := j.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// scanSubmissions scans multiple rows into a slice of Submission.
func scanSubmissions(rows pgx.Rows) ([]*storage.Submission, error) {
	var submissions []*storage.Submission

	for rows.Next() {
		var s storage.Submission
		err := rows.Scan(
			&s.Signature,
			&s.FeePayer,
			&s.RecentBlockhash,
			&s.NumSignatures,
			&s.Raw,
			&s.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		submissions = append(submissions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}

	return submissions, nil
}
