package httpapi

import (
	"net/http"
	"strings"
	"time"

	"procura.io/internal/audit"
	"procura.io/internal/award"
)

type tokenRequest struct {
	User      string   `json:"user"`
	CompanyID string   `json:"company_id"`
	Roles     []string `json:"roles"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = 15 * time.Minute

// handleAuthToken issues development tokens. Only mounted when dev tokens
// are enabled.
func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user := strings.TrimSpace(req.User)
	if user == "" {
		writeError(w, r, http.StatusBadRequest, "user is required")
		return
	}
	company := strings.TrimSpace(req.CompanyID)
	if company == "" {
		writeError(w, r, http.StatusBadRequest, "company_id is required")
		return
	}
	roles := make([]string, 0, len(req.Roles))
	for _, role := range req.Roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		writeError(w, r, http.StatusBadRequest, "roles are required")
		return
	}
	if a.signer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "token signing disabled")
		return
	}

	token, expiresAt, err := a.signer.GenerateToken(award.Tenant{CompanyID: company, ActorID: user}, roles, tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user":       user,
		"company_id": company,
		"roles":      roles,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
