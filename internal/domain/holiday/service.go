package holiday

import "context"

type HolidayService interface {
	List(ctx context.Context, req ListHolidayRequest) ([]HolidayResponse, error)
	Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	Delete(ctx context.Context, id string) error
}
