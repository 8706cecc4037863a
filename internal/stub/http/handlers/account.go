package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

func (h *Handlers) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListPaymentMethods(uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.PaymentMethod]{Items: list})
}

func (h *Handlers) RegisterPaymentMethod(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in models.RegisterPaymentMethodRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	out, err := h.Service.RegisterPaymentMethod(uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeletePaymentMethod(uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SearchAddresses(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}

	list := h.Service.SearchAddresses(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, itemsResponse[models.Address]{Items: list})
}

func (h *Handlers) SubmitRoleApplication(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in models.SubmitRoleApplicationRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	out, err := h.Service.SubmitRoleApplication(uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) ListRoleApplications(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListRoleApplications(uid, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.RoleApplication]{Items: list})
}

func (h *Handlers) ReviewRoleApplication(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in models.ReviewRoleApplicationRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	out, err := h.Service.ReviewRoleApplication(uid, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
