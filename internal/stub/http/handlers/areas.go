package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

func (h *Handlers) ListServiceAreas(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListServiceAreas(uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsResponse[models.ServiceArea]{Items: list})
}

func (h *Handlers) CreateServiceArea(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in models.ServiceArea
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	out, err := h.Service.CreateServiceArea(uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

// UpdateServiceArea - PUT целиком; id берётся из пути, id в теле игнорируется.
func (h *Handlers) UpdateServiceArea(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in models.ServiceArea
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}
	in.ID = chi.URLParam(r, "id")

	out, err := h.Service.UpdateServiceArea(uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) DeleteServiceArea(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteServiceArea(uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
