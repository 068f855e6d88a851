package handler

import (
	"net/http"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/platform/middleware"
	"kycdesk/pkg/platform/httputil"
)

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.Customer](w, r, h.logger, ctx, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.svc.CreateCustomer(ctx, req)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to create customer")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to list customers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customers)
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeFailure(r.Context(), w, err, "failed to get customer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.Customer](w, r, h.logger, ctx, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.UpdateCustomer(ctx, id, req)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to update customer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), id); err != nil {
		h.writeFailure(r.Context(), w, err, "failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
