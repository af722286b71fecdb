package attendance

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
	"github.com/sekolahku/sekolahku/internal/rbac"
)

const dateLayout = "2006-01-02"

// Handler manages attendance endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermAttendanceView))
		r.Get("/", h.getByDateAndClass)
		r.Get("/stats", h.getStats)
		r.Get("/dashboard", h.getDashboard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermAttendanceManage))
		r.Post("/batch", h.batchSave)
	})
}

type batchEntryRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	ClassID   int64  `json:"class_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Notes     string `json:"notes" validate:"max=500"`
}

type batchSaveRequest struct {
	Records []batchEntryRequest `json:"records" validate:"required,min=1,dive"`
}

func (h *Handler) getByDateAndClass(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"date": "must be YYYY-MM-DD"})
		return
	}
	classID, err := strconv.ParseInt(r.URL.Query().Get("class_id"), 10, 64)
	if err != nil || classID <= 0 {
		httpx.ValidationProblem(w, map[string]string{"class_id": "must be a positive integer"})
		return
	}
	records, err := h.service.GetByDateAndClass(r.Context(), day, classID)
	if err != nil {
		h.logger.Error("get attendance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) batchSave(w http.ResponseWriter, r *http.Request) {
	var req batchSaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Namespace()] = fe.Tag()
			}
		}
		httpx.ValidationProblem(w, fields)
		return
	}

	entries := make([]BatchEntry, 0, len(req.Records))
	for i, rec := range req.Records {
		day, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			httpx.ValidationProblem(w, map[string]string{
				"records[" + strconv.Itoa(i) + "].date": "must be YYYY-MM-DD",
			})
			return
		}
		entries = append(entries, BatchEntry{
			StudentID: rec.StudentID,
			ClassID:   rec.ClassID,
			Date:      day,
			Status:    Status(rec.Status),
			Notes:     rec.Notes,
		})
	}

	if err := h.service.BatchSave(r.Context(), entries); err != nil {
		h.logger.Error("batch save attendance", slog.Int("records", len(entries)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"saved": len(entries)})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	identity, _ := rbac.IdentityFromContext(r.Context())
	stats, err := h.service.Stats(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := rbac.IdentityFromContext(r.Context())
	dash, err := h.service.Dashboard(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}
