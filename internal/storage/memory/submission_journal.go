package memory

import (
	"context"
	"sort"
	"sync"

	"solanakit/internal/storage"
)

// SubmissionJournal is an in-memory implementation of
// storage.SubmissionJournal.
type SubmissionJournal struct {
	mu   sync.RWMutex
	data map[string]*storage.Submission // keyed by signature
}

// NewSubmissionJournal creates a new in-memory submission journal.
func NewSubmissionJournal() *SubmissionJournal {
	return &SubmissionJournal{
		data: make(map[string]*storage.Submission),
	}
}

// Compile-time interface check.
var _ storage.SubmissionJournal = (*SubmissionJournal)(nil)

// Record adds a submission. Returns ErrDuplicateKey if the signature
// was already journaled.
func (j *SubmissionJournal) Record(_ context.Context, s *storage.Submission) error {
	if s == nil || s.Signature == "" {
		return storage.ErrInvalidInput
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, exists := j.data[s.Signature]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	submissionCopy := *s
	j.data[s.Signature] = &submissionCopy
	return nil
}

// GetBySignature retrieves a submission by its primary signature.
func (j *SubmissionJournal) GetBySignature(_ context.Context, signature string) (*storage.Submission, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s, exists := j.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	submissionCopy := *s
	return &submissionCopy, nil
}

// ListRecent retrieves up to limit submissions, newest first.
func (j *SubmissionJournal) ListRecent(_ context.Context, limit int) ([]*storage.Submission, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]*storage.Submission, 0, len(j.data))
	for _, s := range j.data {
		submissionCopy := *s
		result = append(result, &submissionCopy)
	}

	// Sort by submitted_at DESC, signature ASC as tie-breaker
	sort.Slice(result, func(i, k int) bool {
		if result[i].SubmittedAt != result[k].SubmittedAt {
			return result[i].SubmittedAt > result[k].SubmittedAt
		}
		return result[i].Signature < result[k].Signature
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
