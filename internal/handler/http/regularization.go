package http

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RegularizationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	UpdateStatus(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type regularizationHandlerImpl struct {
	regularizationService regularization.RegularizationService
}

func NewRegularizationHandler(regularizationService regularization.RegularizationService) RegularizationHandler {
	return &regularizationHandlerImpl{
		regularizationService: regularizationService,
	}
}

// Create implements RegularizationHandler. Accepts a JSON body, or a
// multipart form with the JSON in 'data' and an optional 'photo'.
func (h *regularizationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req regularization.CreateRegularizationRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		// Parse multipart form (max 10MB)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}

		dataJSON := r.FormValue("data")
		if dataJSON == "" {
			response.BadRequest(w, "Field 'data' is required", nil)
			return
		}

		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			slog.Error("Failed to unmarshal JSON data", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}

		file, fileHeader, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			req.File = file
			req.FileHeader = fileHeader
		case err != http.ErrMissingFile:
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode regularization request", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.regularizationService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Regularization request submitted", result)
}

// List implements RegularizationHandler.
func (h *regularizationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := regularization.ListRegularizationRequest{
		All: q.Get("scope") == "all",
	}
	if status := q.Get("status"); status != "" {
		s := regularization.Status(status)
		req.Status = &s
	}
	if employeeID := q.Get("employee_id"); employeeID != "" {
		req.EmployeeID = &employeeID
	}

	result, err := h.regularizationService.List(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements RegularizationHandler.
func (h *regularizationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.regularizationService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateStatus implements RegularizationHandler.
func (h *regularizationHandlerImpl) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req regularization.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode status update", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.regularizationService.UpdateStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization request "+string(result.Status), result)
}

// Delete implements RegularizationHandler.
func (h *regularizationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.regularizationService.Delete(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization request deleted", nil)
}
