package gradebook

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
	"github.com/sekolahku/sekolahku/internal/rbac"
)

// Handler manages gradebook endpoints.
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

// MountRoutes registers gradebook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermGradebookView))
		r.Get("/students/{studentID}", h.listByStudent)
		r.Get("/classes/{classID}", h.listByClass)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermGradebookManage))
		r.Post("/", h.record)
		r.Delete("/{entryID}", h.remove)
	})
}

type recordRequest struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	Subject   string  `json:"subject" validate:"required,min=1,max=64"`
	Term      string  `json:"term" validate:"required,min=1,max=32"`
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
	Notes     string  `json:"notes" validate:"max=500"`
}

func (h *Handler) listByStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "studentID")
	if !ok {
		return
	}
	list, err := h.service.ListByStudent(r.Context(), id, r.URL.Query().Get("term"))
	if err != nil {
		h.logger.Error("list student grades", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (h *Handler) listByClass(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "classID")
	if !ok {
		return
	}
	term := r.URL.Query().Get("term")
	if term == "" {
		httpx.ValidationProblem(w, map[string]string{"term": "required"})
		return
	}
	list, err := h.service.ListByClass(r.Context(), id, term)
	if err != nil {
		h.logger.Error("list class grades", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	identity, _ := rbac.IdentityFromContext(r.Context())
	entry, err := h.service.Record(r.Context(), Entry{
		StudentID:  req.StudentID,
		Subject:    req.Subject,
		Term:       req.Term,
		Score:      req.Score,
		Notes:      req.Notes,
		RecordedBy: identity.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "entryID")
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		httpx.ValidationProblem(w, fields)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.ValidationProblem(w, map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return id, true
}
