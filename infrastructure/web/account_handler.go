// Package web exposes the HTTP surface around the relay socket: the
// account endpoints that mint tokens for the token delegate.
package web

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"relay-lab/errors"
	"relay-lab/services"
)

type AccountHandler struct {
	log     *slog.Logger
	service services.IAccountService
}

func NewAccountHandler(log *slog.Logger, service services.IAccountService) *AccountHandler {
	return &AccountHandler{log: log, service: service}
}

// Mount registers the account routes on the given mux.
func (h *AccountHandler) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
}

type registerRequest struct {
	Nickname string   `json:"nickname"`
	Password string   `json:"password"`
	Friends  []string `json:"friends"`
	Groups   []string `json:"groups"`
}

type loginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.service.Register(req.Nickname, req.Password, req.Friends, req.Groups)
	if err != nil {
		h.log.Debug("registration rejected", "nickname", req.Nickname, "error", err)
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (h *AccountHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.service.Login(req.Nickname, req.Password)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrAccountExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidPassword):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
