package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"numerano/internal/platform/middleware"
	"numerano/internal/registration/models"
	"numerano/internal/registration/service"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/httputil"
	"numerano/pkg/requestcontext"
)

// multipartOverhead leaves room for the multipart envelope around the file.
const multipartOverhead = 64 << 10

// Service defines the registration operations exposed over HTTP.
type Service interface {
	CreateDraft(ctx context.Context) (*models.DraftSession, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, patch models.DraftPatch) (*models.DraftSession, error)
	AddMember(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	UpdateMember(ctx context.Context, id uuid.UUID, index int, patch models.MemberPatch) (*models.DraftSession, error)
	RemoveMember(ctx context.Context, id uuid.UUID, index int) (*models.DraftSession, error)
	VerifyHuman(ctx context.Context, id uuid.UUID, token string) (*models.DraftSession, error)
	AttachIDCard(ctx context.Context, id uuid.UUID, upload service.IDCardUpload) (*models.DraftSession, error)
	RemoveIDCard(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	AdvanceDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	RetreatDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	ResetDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	SubmitDraft(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	CheckEmailUniqueness(ctx context.Context, emails []string) (*models.UniquenessResult, error)
	StatusByTeamID(ctx context.Context, teamID string) (*models.Registration, error)
}

// Handler serves the public registration wizard.
type Handler struct {
	service Service
	logger  *slog.Logger
	limiter func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteLimiter guards every state-changing route.
func WithWriteLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.limiter = mw
	}
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registrations", func(r chi.Router) {
		r.Get("/drafts/{draftID}", h.handleGetDraft)
		r.Get("/status/{teamID}", h.handleStatus)

		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(h.limiter)
			}
			// Multipart upload; not JSON.
			r.Put("/drafts/{draftID}/id-card", h.handleUploadIDCard)

			r.Group(func(r chi.Router) {
				r.Use(middleware.ContentTypeJSON)
				r.Post("/drafts", h.handleCreateDraft)
				r.Patch("/drafts/{draftID}", h.handleUpdateDraft)
				r.Post("/drafts/{draftID}/members", h.handleAddMember)
				r.Patch("/drafts/{draftID}/members/{index}", h.handleUpdateMember)
				r.Delete("/drafts/{draftID}/members/{index}", h.handleRemoveMember)
				r.Post("/drafts/{draftID}/verify", h.handleVerify)
				r.Delete("/drafts/{draftID}/id-card", h.handleRemoveIDCard)
				r.Post("/drafts/{draftID}/advance", h.handleAdvance)
				r.Post("/drafts/{draftID}/retreat", h.handleRetreat)
				r.Post("/drafts/{draftID}/reset", h.handleReset)
				r.Post("/drafts/{draftID}/submit", h.handleSubmit)
				r.Post("/email-check", h.handleEmailCheck)
			})
		})
	})
}

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreateDraft(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to create draft")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDraftResponse(session))
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.GetDraft(ctx, id)
	})
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var patch models.DraftPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.writeError(r.Context(), w, err, "invalid draft patch")
		return
	}
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.UpdateDraft(ctx, id, patch)
	})
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.AddMember(ctx, id)
	})
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	index, err := memberIndex(r)
	if err != nil {
		h.writeError(r.Context(), w, err, "invalid member index")
		return
	}
	var patch models.MemberPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.writeError(r.Context(), w, err, "invalid member patch")
		return
	}
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.UpdateMember(ctx, id, index, patch)
	})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	index, err := memberIndex(r)
	if err != nil {
		h.writeError(r.Context(), w, err, "invalid member index")
		return
	}
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.RemoveMember(ctx, id, index)
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err, "invalid verification request")
		return
	}
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.VerifyHuman(ctx, id, req.Token)
	})
}

func (h *Handler) handleUploadIDCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxIDCardBytes+multipartOverhead)
	if err := r.ParseMultipartForm(models.MaxIDCardBytes + multipartOverhead); err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeValidation, "upload must be a multipart form with a PDF of at most 5 MB"), "invalid upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "form field \"file\" is required"), "invalid upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, models.MaxIDCardBytes+1))
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read upload"), "invalid upload")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.AttachIDCard(ctx, id, service.IDCardUpload{
			FileName:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
	})
}

func (h *Handler) handleRemoveIDCard(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.RemoveIDCard(ctx, id)
	})
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.AdvanceDraft(ctx, id)
	})
}

func (h *Handler) handleRetreat(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.RetreatDraft(ctx, id)
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
		return h.service.ResetDraft(ctx, id)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := draftID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid draft id")
		return
	}
	reg, err := h.service.SubmitDraft(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "submission failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{
		RegistrationID: reg.ID.String(),
		TeamID:         reg.TeamID,
		TeamName:       reg.TeamName,
		Status:         reg.Status,
		SubmissionTime: reg.SubmissionTime,
	})
}

func (h *Handler) handleEmailCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req emailCheckRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid email check request")
		return
	}
	if len(req.Emails) > models.MaxTeamSize {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "too many emails"), "invalid email check request")
		return
	}
	result, err := h.service.CheckEmailUniqueness(ctx, req.Emails)
	if err != nil {
		h.writeError(ctx, w, err, "email check failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reg, err := h.service.StatusByTeamID(ctx, chi.URLParam(r, "teamID"))
	if err != nil {
		h.writeError(ctx, w, err, "status lookup failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		TeamID:         reg.TeamID,
		TeamName:       reg.TeamName,
		Status:         reg.Status,
		SubmissionTime: reg.SubmissionTime,
		UpdatedAt:      reg.UpdatedAt,
	})
}

func (h *Handler) withDraft(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)) {
	ctx := r.Context()
	id, err := draftID(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid draft id")
		return
	}
	session, err := fn(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "draft operation failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDraftResponse(session))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func draftID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid draft id")
	}
	return id, nil
}

func memberIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid member index")
	}
	return index, nil
}
