package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/analysis"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type AnalysisHandler interface {
	MonthlySummary(w http.ResponseWriter, r *http.Request)
}

type analysisHandlerImpl struct {
	analysisService analysis.AnalysisService
}

func NewAnalysisHandler(analysisService analysis.AnalysisService) AnalysisHandler {
	return &analysisHandlerImpl{analysisService: analysisService}
}

// MonthlySummary implements AnalysisHandler.
func (h *analysisHandlerImpl) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs validator.ValidationErrors
	req := analysis.SummaryRequest{
		EmployeeID: q.Get("employee_id"),
		Month:      queryInt(q, "month", &errs),
		Year:       queryInt(q, "year", &errs),
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.analysisService.MonthlySummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
