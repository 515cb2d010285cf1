package centre

import "context"

type CentreRepository interface {
	GetByID(ctx context.Context, id string) (Centre, error)
}
