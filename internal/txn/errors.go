package txn

import "errors"

// Compiler precondition failures.
var (
	// ErrNoInstructions is returned when compiling a transaction with an
	// empty instruction list.
	ErrNoInstructions = errors.New("no instructions provided")

	// ErrNoSigners is returned when compiling without any signers.
	ErrNoSigners = errors.New("no signers provided")

	// ErrUnknownAccount is returned when an instruction references a key
	// absent from the compiled account table.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrTooManyAccounts is returned when the compiled account table
	// exceeds the 256 entries addressable by one-byte indices.
	ErrTooManyAccounts = errors.New("account table exceeds 256 entries")
)

// State-machine violations. These are programming errors and are surfaced
// immediately rather than retried.
var (
	// ErrAlreadySerialized is returned when serializing a message twice.
	ErrAlreadySerialized = errors.New("message is already serialized")

	// ErrNotSerialized is returned when signing or emitting wire bytes
	// before the message has been serialized.
	ErrNotSerialized = errors.New("message is not serialized")

	// ErrAlreadySigned is returned when signing a transaction that already
	// carries signatures.
	ErrAlreadySigned = errors.New("transaction is already signed")

	// ErrMissingSigner is returned when a required signer in the account
	// table has no matching keypair.
	ErrMissingSigner = errors.New("missing keypair for required signer")
)

// Wire decoding failures.
var (
	// ErrTruncated is returned when wire bytes end before the structure
	// they describe.
	ErrTruncated = errors.New("truncated transaction bytes")

	// ErrTrailingBytes is returned when wire bytes continue past the end
	// of the decoded transaction.
	ErrTrailingBytes = errors.New("trailing bytes after transaction")
)
