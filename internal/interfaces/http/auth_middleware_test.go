package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
	apphttp "github.com/jhoicas/Ledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Ledger-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "ledger-api-test"
	testExpMin    = 60
)

// rbacApp monta las tres familias de rutas del libro con un handler que solo responde 200.
func rbacApp() *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"role": apphttp.GetRole(c)}) }
	auth := apphttp.AuthMiddleware(testJWTSecret)
	app.Get("/read", auth, apphttp.RequireRole(pkgjwt.RoleAdmin, pkgjwt.RoleAccountant, pkgjwt.RoleAuditor), ok)
	app.Post("/write", auth, apphttp.RequireRole(pkgjwt.RoleAdmin, pkgjwt.RoleAccountant), ok)
	app.Post("/admin", auth, apphttp.RequireRole(pkgjwt.RoleAdmin), ok)
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func send(t *testing.T, app *fiber.App, method, path, authHeader string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

// ── RequireRole ──

func TestRequireRole_MatrizDeRoles(t *testing.T) {
	cases := []struct {
		role   string
		method string
		path   string
		want   int
	}{
		{pkgjwt.RoleAdmin, http.MethodGet, "/read", http.StatusOK},
		{pkgjwt.RoleAdmin, http.MethodPost, "/write", http.StatusOK},
		{pkgjwt.RoleAdmin, http.MethodPost, "/admin", http.StatusOK},
		{pkgjwt.RoleAccountant, http.MethodGet, "/read", http.StatusOK},
		{pkgjwt.RoleAccountant, http.MethodPost, "/write", http.StatusOK},
		{pkgjwt.RoleAccountant, http.MethodPost, "/admin", http.StatusForbidden},
		{pkgjwt.RoleAuditor, http.MethodGet, "/read", http.StatusOK},
		{pkgjwt.RoleAuditor, http.MethodPost, "/write", http.StatusForbidden},
		{pkgjwt.RoleAuditor, http.MethodPost, "/admin", http.StatusForbidden},
		{"bodeguero", http.MethodGet, "/read", http.StatusForbidden},
	}
	app := rbacApp()
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.path, func(t *testing.T) {
			status, body := send(t, app, tc.method, tc.path, bearer(t, tc.role))
			assert.Equal(t, tc.want, status)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body.Code)
			}
		})
	}
}

func TestRequireRole_TokenSinRolEs401(t *testing.T) {
	status, body := send(t, rbacApp(), http.MethodGet, "/read", bearer(t, ""))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_ROLE", body.Code)
}

// ── AuthMiddleware ──

func TestAuthMiddleware_CabecerasInvalidas(t *testing.T) {
	cases := map[string]struct {
		header string
		code   string
	}{
		"sin cabecera":     {"", "MISSING_TOKEN"},
		"sin Bearer":       {"Token abc", "INVALID_TOKEN"},
		"token malformado": {"Bearer token.invalido.aqui", "INVALID_TOKEN"},
		"otro secreto": {func() string {
			tok, _ := pkgjwt.Generate("otro-secreto", testUserID, testCompanyID, pkgjwt.RoleAdmin, "x", 60)
			return "Bearer " + tok
		}(), "INVALID_TOKEN"},
	}
	app := rbacApp()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := send(t, app, http.MethodGet, "/read", tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_CargaIdentidadEnLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, pkgjwt.RoleAccountant))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, pkgjwt.RoleAccountant, body["role"])
}
