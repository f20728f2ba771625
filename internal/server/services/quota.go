package services

import (
	"sync"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// QuotaAccountant admits uploads against a per-user byte budget for the
// lifetime of one request batch.
//
// Admission is greedy: each candidate's size is added to the running total
// before the comparison, and a batch that once crossed the limit rejects
// every later candidate as well. Filling the quota exactly is allowed.
//
// The usage snapshot is taken once per batch, so two concurrent batches of
// the same user can both pass admission. Enforcement is per batch, not a
// global reservation.
type QuotaAccountant struct {
	mu         sync.Mutex
	limit      int64
	used       int64
	privileged bool
	exceeded   bool
}

// NewQuotaAccountant starts accounting from the user's current usage.
// Privileged users are never rejected.
func NewQuotaAccountant(used, limit int64, privileged bool) *QuotaAccountant {
	return &QuotaAccountant{used: used, limit: limit, privileged: privileged}
}

// Admit charges size bytes against the budget and reports whether the
// candidate may be stored.
func (q *QuotaAccountant) Admit(size int64) error {
	if q.privileged {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.exceeded {
		return common.ErrQuotaExceeded
	}

	q.used += size
	if q.used > q.limit {
		q.exceeded = true
		return common.ErrQuotaExceeded
	}
	return nil
}

// Exceeded reports whether any candidate in the batch was rejected for
// lack of quota.
func (q *QuotaAccountant) Exceeded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.exceeded
}
