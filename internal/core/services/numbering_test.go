package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/services"
	"github.com/coopfin/sacco_core_app/internal/repositories/database/memory"
)

// flakySequence fails a fixed number of times before delegating.
type flakySequence struct {
	failures int
	calls    int
	next     int64
}

func (f *flakySequence) Next(ctx context.Context, saccoID, name string) (int64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, apperrors.ErrTransient
	}
	f.next++
	return f.next, nil
}

func TestTransactionNumberGenerator_Format(t *testing.T) {
	gen := services.NewTransactionNumberGenerator(memory.NewStore())

	number, err := gen.NextTransactionNumber(context.Background(), "sacco_1")
	assert.NoError(t, err)
	assert.Equal(t, "TXN-000001", number)

	receipt, err := gen.NextReceiptNumber(context.Background(), "sacco_1")
	assert.NoError(t, err)
	assert.Equal(t, "RCP-000001", receipt)
}

func TestTransactionNumberGenerator_ScopedPerSacco(t *testing.T) {
	gen := services.NewTransactionNumberGenerator(memory.NewStore())
	ctx := context.Background()

	first, err := gen.NextTransactionNumber(ctx, "sacco_1")
	assert.NoError(t, err)
	second, err := gen.NextTransactionNumber(ctx, "sacco_1")
	assert.NoError(t, err)
	other, err := gen.NextTransactionNumber(ctx, "sacco_2")
	assert.NoError(t, err)

	assert.Equal(t, "TXN-000001", first)
	assert.Equal(t, "TXN-000002", second)
	assert.Equal(t, "TXN-000001", other) // independent counter
}

func TestTransactionNumberGenerator_RetriesTransientFailures(t *testing.T) {
	seq := &flakySequence{failures: 2}
	gen := services.NewTransactionNumberGenerator(seq)

	number, err := gen.NextTransactionNumber(context.Background(), "sacco_1")

	assert.NoError(t, err)
	assert.Equal(t, "TXN-000001", number)
	assert.Equal(t, 3, seq.calls)
}

func TestTransactionNumberGenerator_GivesUpAfterMaxRetries(t *testing.T) {
	seq := &flakySequence{failures: 100}
	gen := services.NewTransactionNumberGenerator(seq)

	_, err := gen.NextTransactionNumber(context.Background(), "sacco_1")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransient))
}
