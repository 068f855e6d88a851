package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
	kstrings "kycdesk/pkg/platform/strings"
)

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathID(r, "customerId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.Initiate(r.Context(), customerID)
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to initiate application")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file exceeds the upload size limit"))
			return
		}
		h.writeFailure(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "multipart form expected"), "invalid upload form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file is required"))
		return
	}
	defer file.Close()

	doc, err := h.svc.Upload(ctx, id, models.DocumentType(r.FormValue("type")), header.Filename, file)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to upload document")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Submit, "failed to submit application")
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Resubmit, "failed to resubmit application")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (*models.Application, error), msg string) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := fn(r.Context(), id)
	if err != nil {
		h.writeFailure(r.Context(), w, err, msg)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// handleDecision reads reviewerName, comment and reason from the query string.
func (h *Handler) handleDecision(action review.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r, "id")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		q := r.URL.Query()
		app, err := h.svc.Decide(ctx, review.Decision{
			ApplicationID: id,
			Action:        action,
			Reviewer:      kstrings.FirstNonBlank(q.Get("reviewerName"), principalName(ctx)),
			Comment:       q.Get("comment"),
			Reason:        q.Get("reason"),
		})
		if err != nil {
			h.writeFailure(ctx, w, err, "review decision failed")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, app)
	}
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to get application")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.svc.History(r.Context(), id)
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to load history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathID(r, "customerId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeList(w, r, func(ctx context.Context) ([]*models.Application, error) {
		return h.svc.ListByCustomer(ctx, customerID)
	})
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.List)
}

func (h *Handler) handleListByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	h.writeList(w, r, func(ctx context.Context) ([]*models.Application, error) {
		return h.svc.ListByStatus(ctx, status)
	})
}

func (h *Handler) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.ReviewQueue)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, fn func(context.Context) ([]*models.Application, error)) {
	apps, err := fn(r.Context())
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to list applications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, apps)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Analytics(r.Context())
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to compute analytics")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
