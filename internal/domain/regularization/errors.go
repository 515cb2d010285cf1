package regularization

import "errors"

var (
	ErrRegularizationNotFound = errors.New("regularization request not found")
	ErrAlreadyProcessed       = errors.New("regularization request has already been approved or rejected")
	ErrSelfReview             = errors.New("you cannot review your own regularization request")
	ErrNotOwner               = errors.New("regularization request belongs to another employee")
	ErrCannotDeleteProcessed  = errors.New("only pending regularization requests can be deleted")
	ErrFutureDate             = errors.New("regularization date cannot be in the future")
)
