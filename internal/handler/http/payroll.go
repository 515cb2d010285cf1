package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	GetEmployeeAttendance(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// GetEmployeeAttendance implements PayrollHandler.
func (h *payrollHandlerImpl) GetEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs validator.ValidationErrors
	req := payroll.AttendanceDetailRequest{
		EmployeeID: chi.URLParam(r, "id"),
		Month:      queryInt(q, "month", &errs),
		Year:       queryInt(q, "year", &errs),
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.payrollService.EmployeeAttendanceDetail(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
