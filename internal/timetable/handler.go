package timetable

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

// Handler manages timetable endpoints.
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

// MountRoutes registers timetable routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermTimetableView))
		r.Get("/classes/{classID}", h.listByClass)
		r.Get("/slots/{slotID}", h.getSlot)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermTimetableManage))
		r.Post("/slots", h.createSlot)
		r.Put("/slots/{slotID}", h.updateSlot)
		r.Delete("/slots/{slotID}", h.deleteSlot)
	})
}

type slotRequest struct {
	ClassID   int64  `json:"class_id" validate:"required,gt=0"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartsAt  string `json:"starts_at" validate:"required,len=5"`
	EndsAt    string `json:"ends_at" validate:"required,len=5"`
	Subject   string `json:"subject" validate:"required,min=1,max=64"`
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
}

type slotUpdateRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartsAt  string `json:"starts_at" validate:"required,len=5"`
	EndsAt    string `json:"ends_at" validate:"required,len=5"`
	Subject   string `json:"subject" validate:"required,min=1,max=64"`
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
}

func (h *Handler) listByClass(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "classID")
	if !ok {
		return
	}
	slots, err := h.service.ListByClass(r.Context(), id)
	if err != nil {
		h.logger.Error("list timetable", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) getSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "slotID")
	if !ok {
		return
	}
	slot, err := h.service.GetSlot(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, slot)
}

func (h *Handler) createSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	slot, err := h.service.CreateSlot(r.Context(), Slot{
		ClassID:   req.ClassID,
		DayOfWeek: req.DayOfWeek,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, slot)
}

func (h *Handler) updateSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "slotID")
	if !ok {
		return
	}
	var req slotUpdateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	slot, err := h.service.UpdateSlot(r.Context(), Slot{
		ID:        id,
		DayOfWeek: req.DayOfWeek,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, slot)
}

func (h *Handler) deleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "slotID")
	if !ok {
		return
	}
	if err := h.service.DeleteSlot(r.Context(), id); err != nil {
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
