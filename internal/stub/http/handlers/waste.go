package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

func (h *Handlers) ListWasteRequests(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := models.WasteRequestFilter{
		Status: q.Get("status"),
		Cursor: q.Get("cursor"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			invalidArgument(w, r)
			return
		}
		f.Limit = n
	}

	page, err := h.Service.ListWasteRequests(uid, f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) CreateWasteRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in models.CreateWasteRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	out, err := h.Service.CreateWasteRequest(uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) GetWasteRequest(w http.ResponseWriter, r *http.Request) {
	h.wasteRequestAction(w, r, h.Service.GetWasteRequest)
}

func (h *Handlers) CancelWasteRequest(w http.ResponseWriter, r *http.Request) {
	h.wasteRequestAction(w, r, h.Service.CancelWasteRequest)
}

func (h *Handlers) AcceptWasteRequest(w http.ResponseWriter, r *http.Request) {
	h.wasteRequestAction(w, r, h.Service.AcceptWasteRequest)
}

func (h *Handlers) CompleteWasteRequest(w http.ResponseWriter, r *http.Request) {
	h.wasteRequestAction(w, r, h.Service.CompleteWasteRequest)
}

func (h *Handlers) wasteRequestAction(w http.ResponseWriter, r *http.Request, action func(int64, string) (*models.WasteRequest, error)) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		invalidArgument(w, r)
		return
	}

	out, err := action(uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
