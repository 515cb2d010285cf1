package regularization

import "context"

type RegularizationRepository interface {
	Create(ctx context.Context, r Regularization) (Regularization, error)
	GetByID(ctx context.Context, id string) (Regularization, error)
	List(ctx context.Context, filter RegularizationFilter) ([]Regularization, error)

	// ApplyReview records the decision only while the request is Pending.
	// Returns ErrAlreadyProcessed if another reviewer got there first.
	ApplyReview(ctx context.Context, review Review) (Regularization, error)
	Delete(ctx context.Context, id string) error
}
