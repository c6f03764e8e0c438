package repositories

import "context"

// SequenceSource issues monotonically increasing values for a named,
// SACCO-scoped sequence. Implementations must be collision-free under
// concurrent issuance; transient failures surface apperrors.ErrTransient so
// the caller can retry.
type SequenceSource interface {
	Next(ctx context.Context, saccoID, name string) (int64, error)
}
