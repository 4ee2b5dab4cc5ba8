package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"procura.io/internal/auth"
	"procura.io/internal/award"
)

func withTenant(r *http.Request, roles ...string) *http.Request {
	ctx := auth.ContextWithTenant(r.Context(), award.Tenant{CompanyID: "co-1", ActorID: "user-1"}, roles)
	return r.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	handler := RequireRole(auth.RoleBuyer)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withTenant(httptest.NewRequest(http.MethodPost, "/v1/pos/from-awards", nil), "Buyer"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	handler := RequireRole(auth.RoleBuyer)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withTenant(httptest.NewRequest(http.MethodPost, "/v1/pos/from-awards", nil), auth.RoleViewer))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestRequireRoleRejectsMissingTenant(t *testing.T) {
	handler := RequireRole(auth.RoleBuyer)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/pos/from-awards", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]bool{
		"":               false,
		"Basic abc":      false,
		"Bearer ":        false,
		"Bearer abc.def": true,
		"bearer abc.def": true,
	}
	for header, ok := range cases {
		_, err := extractBearerToken(header)
		if (err == nil) != ok {
			t.Fatalf("%q: expected ok=%v, got err=%v", header, ok, err)
		}
	}
}
