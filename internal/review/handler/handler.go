package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	notificationModels "numerano/internal/notification/models"
	"numerano/internal/platform/middleware"
	"numerano/internal/registration/models"
	registrationService "numerano/internal/registration/service"
	reviewService "numerano/internal/review/service"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/httputil"
	"numerano/pkg/requestcontext"
)

// Registrations is the read side the control room needs.
type Registrations interface {
	ListRegistrations(ctx context.Context, filter registrationService.ListFilter) (*registrationService.ListResult, error)
	GetRegistration(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	IDCard(ctx context.Context, id uuid.UUID) (*models.IDCard, error)
}

// Reviewer applies decisions and reports notification delivery.
type Reviewer interface {
	Review(ctx context.Context, id uuid.UUID, decision reviewService.Decision) (*reviewService.ReviewResult, error)
	ResendNotification(ctx context.Context, id uuid.UUID) (*reviewService.ReviewResult, error)
	NotificationOutcome(ctx context.Context, id uuid.UUID) (*notificationModels.OutcomeRecord, error)
}

// Handler serves the admin control room. Callers mount it behind admin
// authentication.
type Handler struct {
	registrations Registrations
	reviewer      Reviewer
	logger        *slog.Logger
}

func New(registrations Registrations, reviewer Reviewer, logger *slog.Logger) *Handler {
	return &Handler{registrations: registrations, reviewer: reviewer, logger: logger}
}

// Register registers the admin review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/registrations", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/notification", h.handleNotificationOutcome)
		r.Get("/{id}/id-card", h.handleIDCard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Post("/{id}/review", h.handleReview)
			r.Post("/{id}/notify", h.handleNotify)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	result, err := h.registrations.ListRegistrations(ctx, registrationService.ListFilter{
		Query:  query.Get("q"),
		Status: models.Status(query.Get("status")),
	})
	if err != nil {
		h.writeError(ctx, w, err, "failed to list registrations")
		return
	}
	resp := ListResponse{
		Registrations: make([]RegistrationResponse, 0, len(result.Registrations)),
		Counts:        result.Counts,
	}
	for _, reg := range result.Registrations {
		resp.Registrations = append(resp.Registrations, toRegistrationResponse(reg))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := registrationID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration id")
		return
	}
	reg, err := h.registrations.GetRegistration(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load registration")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := registrationID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration id")
		return
	}
	var req reviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid review request")
		return
	}
	result, err := h.reviewer.Review(ctx, id, reviewService.Decision(req.Decision))
	if err != nil {
		h.writeError(ctx, w, err, "review failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReviewResponse{
		Registration: toRegistrationResponse(result.Registration),
		Notification: result.Notification,
	})
}

func (h *Handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := registrationID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration id")
		return
	}
	result, err := h.reviewer.ResendNotification(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "notification resend failed")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, ReviewResponse{
		Registration: toRegistrationResponse(result.Registration),
		Notification: result.Notification,
	})
}

func (h *Handler) handleNotificationOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := registrationID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration id")
		return
	}
	record, err := h.reviewer.NotificationOutcome(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "failed to read notification outcome")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleIDCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := registrationID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid registration id")
		return
	}
	card, err := h.registrations.IDCard(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load id card")
		return
	}
	data, err := base64.StdEncoding.DecodeString(card.EncodedData)
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeInternal, "stored id card is corrupt"), "failed to decode id card")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", card.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"admin", requestcontext.Admin(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"admin", requestcontext.Admin(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func registrationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid registration id")
	}
	return id, nil
}
