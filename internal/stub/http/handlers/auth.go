package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-waste-client/internal/models"
	logctx "github.com/pribylovaa/go-waste-client/internal/pkg/log"
	"github.com/pribylovaa/go-waste-client/internal/pkg/redact"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	pair, err := h.Service.Register(in)
	if err != nil {
		logctx.From(r.Context()).Info("register_rejected",
			slog.String("email", redact.Email(in.Email)),
			slog.String("err", err.Error()),
		)
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	pair, err := h.Service.Login(in)
	if err != nil {
		logctx.From(r.Context()).Info("login_rejected", slog.String("email", redact.Email(in.Email)))
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil {
		invalidArgument(w, r)
		return
	}

	pair, err := h.Service.Refresh(in.RefreshToken)
	if err != nil {
		logctx.From(r.Context()).Info("refresh_rejected", slog.String("err", err.Error()))
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	id, err := h.Service.Me(uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, id)
}
