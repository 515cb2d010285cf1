package regularization

import "context"

type RegularizationService interface {
	Create(ctx context.Context, req CreateRegularizationRequest) (RegularizationResponse, error)
	List(ctx context.Context, req ListRegularizationRequest) ([]RegularizationResponse, error)
	Get(ctx context.Context, id string) (RegularizationResponse, error)

	// UpdateStatus approves or rejects a pending request. Approval writes the
	// day's attendance in the same transaction.
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (RegularizationResponse, error)
	Delete(ctx context.Context, id string) error
}
