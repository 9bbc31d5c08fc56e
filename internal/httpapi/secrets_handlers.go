package httpapi

import (
	"net/http"
	"strings"
)

type SecretsHandler struct {
	Set    func(string) error
	Delete func() error
}

type setTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) SetSourceToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "token is empty")
		return
	}
	if err := h.Set(req.Token); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keychain_error", "failed to store token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteSourceToken(w http.ResponseWriter, r *http.Request) {
	if err := h.Delete(); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
