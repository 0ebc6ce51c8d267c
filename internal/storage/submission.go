package storage

import "context"

// Submission is one transaction handed to a node, journaled at
// submission time so signatures can be tracked across restarts.
type Submission struct {
	// Signature is the base-58 primary signature of the transaction.
	Signature string

	// FeePayer is the base-58 address at index 0 of the account table.
	FeePayer string

	// RecentBlockhash is the base-58 lifetime anchor the transaction
	// was compiled against.
	RecentBlockhash string

	// NumSignatures is the number of signatures on the wire.
	NumSignatures int

	// Raw is the full serialized transaction, base64 encoded.
	Raw string

	// SubmittedAt is the unix timestamp of the submission.
	SubmittedAt int64
}

// SubmissionJournal provides access to submissions storage.
type SubmissionJournal interface {
	// Record adds a submission. Returns ErrDuplicateKey if the
	// signature was already journaled.
	Record(ctx context.Context, s *Submission) error

	// GetBySignature retrieves a submission by its primary signature.
	// Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*Submission, error)

	// ListRecent retrieves up to limit submissions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Submission, error)
}
