package httpapi

import (
	"net/http"
	"strings"
	"sync/atomic"

	"recruit-intake/internal/config"
	"recruit-intake/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setWebhookTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) account() string {
	return h.CfgVal.Load().(config.Config).Webhook.KeyringAccount
}

func (h SecretsHandler) SetWebhookToken(w http.ResponseWriter, r *http.Request) {
	var req setWebhookTokenReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_token", "token must not be empty")
		return
	}

	if err := secrets.SetWebhookToken(h.account(), req.Token); err != nil {
		WriteError(w, r, http.StatusBadGateway, "keyring_failed", "failed to store token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteWebhookToken(w http.ResponseWriter, r *http.Request) {
	if err := secrets.DeleteWebhookToken(h.account()); err != nil {
		WriteError(w, r, http.StatusBadGateway, "keyring_failed", "failed to delete token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
