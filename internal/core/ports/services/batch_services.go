package services

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/dto"
)

// BatchSvcFacade runs periodic fan-out jobs. Each member is one ordinary
// call into the transaction engine; a member-level failure is recorded and
// the batch continues.
type BatchSvcFacade interface {
	PostSavingsInterest(ctx context.Context, saccoID string, req dto.InterestBatchRequest, actorID string) (*dto.BatchResult, error)
	PayDividends(ctx context.Context, saccoID string, req dto.DividendBatchRequest, actorID string) (*dto.BatchResult, error)
}
