package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/dto"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/application/reconciliation"
	"github.com/jhoicas/Ledger-api/internal/application/sequence"
	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/money"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Ledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Ledger-api/pkg/jwt"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type api struct {
	t   *testing.T
	app *fiber.App
}

// newAPI arma la aplicación completa sobre el almacén en memoria.
func newAPI(t *testing.T) *api {
	t.Helper()
	log := zerolog.Nop()
	store := memory.New()
	rt := retry.New(retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}, log)
	auditSvc := audit.NewService(store, log)
	ledgerSvc := ledger.NewService(store, auditSvc, rt, log)
	numbers := sequence.NewGenerator(store, rt, sequence.Config{Prefix: "INV", Padding: 6})
	invoices := billing.NewInvoiceUseCase(store, ledgerSvc, numbers, auditSvc, rt, log,
		billing.Config{SequenceName: "invoice", PaymentTermsDays: 30, DefaultCurrency: "USD"})

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:         ledgerSvc,
		Invoices:       invoices,
		CustomerUC:     billing.NewCustomerUseCase(store),
		CompanyUC:      billing.NewCompanyUseCase(store),
		Audit:          auditSvc,
		Reconciliation: reconciliation.NewService(store, auditSvc, rt, log, 2),
		Idempotency:    cache.NewIdempotencyStore(time.Hour),
		JWTSecret:      testJWTSecret,
	})
	return &api{t: t, app: app}
}

type call struct {
	method  string
	path    string
	body    any
	company string
	role    string
	key     string
}

func (a *api) do(c call) (*http.Response, []byte) {
	a.t.Helper()
	var reader io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.company == "" {
		c.company = testCompanyID
	}
	if c.role == "" {
		c.role = pkgjwt.RoleAdmin
	}
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, c.company, c.role, testIssuer, testExpMin)
	require.NoError(a.t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	if c.key != "" {
		req.Header.Set(apphttp.HeaderIdempotencyKey, c.key)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, body
}

// mustJSON ejecuta la llamada, verifica el status y decodifica la respuesta.
func (a *api) mustJSON(c call, status int, out any) {
	a.t.Helper()
	resp, body := a.do(c)
	require.Equal(a.t, status, resp.StatusCode, string(body))
	if out != nil {
		require.NoError(a.t, json.Unmarshal(body, out))
	}
}

func (a *api) errorCode(c call, status int) string {
	a.t.Helper()
	var e dto.ErrorResponse
	a.mustJSON(c, status, &e)
	return e.Code
}

func (a *api) account(code, typ, category string) dto.AccountResponse {
	a.t.Helper()
	var acc dto.AccountResponse
	a.mustJSON(call{method: http.MethodPost, path: "/api/accounts", body: dto.CreateAccountRequest{
		Code: code, Name: code, Type: typ, Category: category, Currency: "USD",
	}}, http.StatusCreated, &acc)
	return acc
}

func usd(s string) money.Money { return money.MustParse(s, "USD") }

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FacturaEmitidaYPagada(t *testing.T) {
	a := newAPI(t)

	a.mustJSON(call{method: http.MethodPut, path: "/api/company", body: dto.UpsertCompanyRequest{
		Name: "Acme SAS", TaxID: "900123456", Currency: "USD",
	}}, http.StatusOK, nil)

	var customer dto.CustomerResponse
	a.mustJSON(call{method: http.MethodPost, path: "/api/customers", body: dto.CreateCustomerRequest{
		Name: "Cliente Uno", TaxID: "800-1",
	}}, http.StatusCreated, &customer)

	receivable := a.account("1300", "ASSET", "ACCOUNTS_RECEIVABLE")
	revenue := a.account("4100", "REVENUE", "OPERATING_REVENUE")
	cash := a.account("1100", "ASSET", "CASH")

	var inv dto.InvoiceResponse
	a.mustJSON(call{method: http.MethodPost, path: "/api/invoices", body: map[string]any{
		"customer_id": customer.ID,
		"items": []map[string]any{
			{"description": "consultoría", "quantity": "2", "unit_price": "50.00", "tax_rate": "0.05"},
		},
	}}, http.StatusCreated, &inv)
	assert.Equal(t, "DRAFT", inv.Status)
	assert.Equal(t, usd("105.00"), inv.Total)

	a.mustJSON(call{method: http.MethodPost, path: "/api/invoices/" + inv.ID + "/finalize", body: dto.FinalizeInvoiceRequest{
		ReceivableAccountID: receivable.ID, RevenueAccountID: revenue.ID,
	}}, http.StatusOK, &inv)
	assert.Equal(t, "SENT", inv.Status)
	assert.Regexp(t, `^INV-\d{4}-000001$`, inv.Number)
	require.NotNil(t, inv.Snapshot)
	assert.Len(t, inv.LedgerTransactionIDs, 2)

	var p dto.PaymentResponse
	a.mustJSON(call{method: http.MethodPost, path: "/api/invoices/" + inv.ID + "/payments", body: dto.RecordPaymentRequest{
		Amount: "105.00", Currency: "USD", DepositAccountID: cash.ID,
	}}, http.StatusCreated, &p)
	assert.Equal(t, "COMPLETED", p.Status)

	a.mustJSON(call{method: http.MethodGet, path: "/api/invoices/" + inv.ID}, http.StatusOK, &inv)
	assert.Equal(t, "PAID", inv.Status)
	assert.Equal(t, usd("105.00"), inv.PaidAmount)

	var bal dto.BalanceResponse
	a.mustJSON(call{method: http.MethodGet, path: "/api/accounts/" + receivable.ID + "/balance"}, http.StatusOK, &bal)
	assert.True(t, bal.Stored.IsZero())
	assert.Equal(t, bal.Stored, bal.Calculated)

	var report dto.ReconciliationReport
	a.mustJSON(call{method: http.MethodGet, path: "/api/reconciliation", role: pkgjwt.RoleAuditor}, http.StatusOK, &report)
	assert.Zero(t, report.Drifted)

	var entries []dto.AuditEntryResponse
	a.mustJSON(call{method: http.MethodGet, path: "/api/audit?entity_type=INVOICE&entity_id=" + inv.ID, role: pkgjwt.RoleAuditor}, http.StatusOK, &entries)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.True(t, e.Verified, "checksum de %s", e.ID)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_ErroresDelDominio(t *testing.T) {
	a := newAPI(t)
	cash := a.account("1100", "ASSET", "CASH")

	// monto inválido → 400
	code := a.errorCode(call{method: http.MethodPost, path: "/api/transactions", body: dto.PostTransactionRequest{
		AccountID: cash.ID, Direction: "DEBIT", Amount: "abc", Currency: "USD",
	}}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", code)

	// moneda distinta a la de la cuenta → 400
	code = a.errorCode(call{method: http.MethodPost, path: "/api/transactions", body: dto.PostTransactionRequest{
		AccountID: cash.ID, Direction: "DEBIT", Amount: "1.00", Currency: "EUR",
	}}, http.StatusBadRequest)
	assert.Equal(t, "CURRENCY_MISMATCH", code)

	// inexistente → 404
	assert.Equal(t, "NOT_FOUND", a.errorCode(call{method: http.MethodGet, path: "/api/accounts/nope"}, http.StatusNotFound))

	// otro tenant → 403
	assert.Equal(t, "FORBIDDEN", a.errorCode(call{method: http.MethodGet, path: "/api/accounts/" + cash.ID, company: "otra-empresa"}, http.StatusForbidden))

	// código repetido → 409
	code = a.errorCode(call{method: http.MethodPost, path: "/api/accounts", body: dto.CreateAccountRequest{
		Code: "1100", Name: "dup", Type: "ASSET", Category: "CASH", Currency: "USD",
	}}, http.StatusConflict)
	assert.Equal(t, "DUPLICATE", code)

	// cuerpo malformado → 400
	resp, _ := a.do(call{method: http.MethodPost, path: "/api/customers", body: "no es un objeto"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ReversoDobleEsConflictoDeEstado(t *testing.T) {
	a := newAPI(t)
	cash := a.account("1100", "ASSET", "CASH")

	var tx dto.TransactionResponse
	a.mustJSON(call{method: http.MethodPost, path: "/api/transactions", body: dto.PostTransactionRequest{
		AccountID: cash.ID, Direction: "DEBIT", Amount: "10.00", Currency: "USD",
	}}, http.StatusCreated, &tx)

	var rev dto.TransactionResponse
	a.mustJSON(call{method: http.MethodPost, path: "/api/transactions/" + tx.ID + "/reverse",
		body: dto.ReverseTransactionRequest{Reason: "error de digitación"}}, http.StatusCreated, &rev)
	assert.Equal(t, "CREDIT", rev.Direction)
	assert.Equal(t, tx.ID, rev.ReversalOf)

	code := a.errorCode(call{method: http.MethodPost, path: "/api/transactions/" + tx.ID + "/reverse",
		body: dto.ReverseTransactionRequest{Reason: "otra vez"}}, http.StatusConflict)
	assert.Equal(t, "STATE", code)
}

func TestErrorHandler_ContencionEs503ConRetryAfter(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(zerolog.Nop())})
	app.Get("/x", func(c *fiber.Ctx) error { return domain.Conflictf("versión distinta") })
	app.Get("/y", func(c *fiber.Ctx) error { return domain.Reconciliationf("descuadre") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/y", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles e idempotencia
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_AuditorSoloLee(t *testing.T) {
	a := newAPI(t)
	resp, _ := a.do(call{method: http.MethodPost, path: "/api/accounts", role: pkgjwt.RoleAuditor, body: dto.CreateAccountRequest{
		Code: "1100", Name: "Caja", Type: "ASSET", Category: "CASH",
	}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = a.do(call{method: http.MethodGet, path: "/api/accounts", role: pkgjwt.RoleAuditor})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(call{method: http.MethodPost, path: "/api/reconciliation/recalculate", role: pkgjwt.RoleAccountant})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_RechazoPorRolNoConsumeLaIdempotencyKey(t *testing.T) {
	a := newAPI(t)
	create := call{method: http.MethodPost, path: "/api/accounts", key: "alta-1100", role: pkgjwt.RoleAuditor, body: dto.CreateAccountRequest{
		Code: "1100", Name: "Caja", Type: "ASSET", Category: "CASH",
	}}
	resp, _ := a.do(create)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	create.role = pkgjwt.RoleAccountant
	resp, _ = a.do(create)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Idempotent-Replayed"))
}

func TestAPI_IdempotencyKeyPosteaUnaSolaVez(t *testing.T) {
	a := newAPI(t)
	cash := a.account("1100", "ASSET", "CASH")
	post := call{method: http.MethodPost, path: "/api/transactions", key: "pago-42", body: dto.PostTransactionRequest{
		AccountID: cash.ID, Direction: "DEBIT", Amount: "40.00", Currency: "USD",
	}}

	var first, second dto.TransactionResponse
	a.mustJSON(post, http.StatusCreated, &first)
	resp, body := a.do(post)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, first.ID, second.ID)

	var acc dto.AccountResponse
	a.mustJSON(call{method: http.MethodGet, path: "/api/accounts/" + cash.ID}, http.StatusOK, &acc)
	assert.Equal(t, usd("40.00"), acc.Balance)

	// misma clave, otro cuerpo
	post.body = dto.PostTransactionRequest{AccountID: cash.ID, Direction: "DEBIT", Amount: "41.00", Currency: "USD"}
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", a.errorCode(post, http.StatusUnprocessableEntity))

	// la clave es por tenant
	other := a.account("1200", "ASSET", "CURRENT_ASSETS")
	post.body = dto.PostTransactionRequest{AccountID: other.ID, Direction: "DEBIT", Amount: "1.00", Currency: "USD"}
	post.key = "pago-43"
	a.mustJSON(post, http.StatusCreated, nil)
}

func TestAPI_ErrorDeValidacionTambienSeRepite(t *testing.T) {
	a := newAPI(t)
	post := call{method: http.MethodPost, path: "/api/transactions", key: "k-invalida", body: dto.PostTransactionRequest{
		AccountID: "x", Direction: "SIDEWAYS", Amount: "1", Currency: "USD",
	}}
	resp, _ := a.do(post)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = a.do(post)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
}
