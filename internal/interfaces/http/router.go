package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ledger-api/internal/application/audit"
	"github.com/jhoicas/Ledger-api/internal/application/billing"
	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/application/reconciliation"
	"github.com/jhoicas/Ledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/Ledger-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger         *ledger.Service
	Invoices       *billing.InvoiceUseCase
	CustomerUC     *billing.CustomerUseCase
	CompanyUC      *billing.CompanyUseCase
	Audit          *audit.Service
	Reconciliation *reconciliation.Service
	Idempotency    *cache.IdempotencyStore
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token; los POST honran Idempotency-Key.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), Idempotency(deps.Idempotency))

	read := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor)
	write := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant)
	admin := RequireRole(jwt.RoleAdmin)

	// Company (perfil legal del tenant)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	protected.Get("/company", read, companyHandler.Get)
	protected.Put("/company", admin, companyHandler.Upsert)

	// Customers
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", write, customerHandler.Create)
	customers.Get("/", read, customerHandler.List)
	customers.Get("/:id", read, customerHandler.Get)
	customers.Patch("/:id", write, customerHandler.Update)

	// Accounts
	accounts := protected.Group("/accounts")
	accountHandler := NewAccountHandler(deps.Ledger)
	accounts.Post("/", write, accountHandler.Create)
	accounts.Get("/", read, accountHandler.List)
	accounts.Get("/tree", read, accountHandler.Tree)
	accounts.Get("/:id", read, accountHandler.Get)
	accounts.Patch("/:id", write, accountHandler.Update)
	accounts.Delete("/:id", admin, accountHandler.Delete)
	accounts.Post("/:id/archive", write, accountHandler.Archive)
	accounts.Post("/:id/activate", write, accountHandler.Activate)
	accounts.Post("/:id/deactivate", write, accountHandler.Deactivate)
	accounts.Get("/:id/balance", read, accountHandler.Balance)
	accounts.Post("/:id/reconcile", write, accountHandler.Reconcile)

	// Transactions
	transactions := protected.Group("/transactions")
	transactionHandler := NewTransactionHandler(deps.Ledger)
	transactions.Post("/", write, transactionHandler.Post)
	transactions.Get("/", read, transactionHandler.List)
	transactions.Get("/:id", read, transactionHandler.Get)
	transactions.Post("/:id/reverse", write, transactionHandler.Reverse)
	transactions.Post("/:id/correct", write, transactionHandler.Correct)

	// Invoices y pagos
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	invoices.Post("/", write, invoiceHandler.Create)
	invoices.Get("/", read, invoiceHandler.List)
	invoices.Get("/:id", read, invoiceHandler.GetByID)
	invoices.Post("/:id/items", write, invoiceHandler.AddItem)
	invoices.Patch("/:id/items/:itemId", write, invoiceHandler.UpdateItem)
	invoices.Delete("/:id/items/:itemId", write, invoiceHandler.DeleteItem)
	invoices.Post("/:id/finalize", write, invoiceHandler.Finalize)
	invoices.Post("/:id/void", write, invoiceHandler.Void)
	invoices.Post("/:id/duplicate", write, invoiceHandler.Duplicate)
	invoices.Post("/:id/payments", write, invoiceHandler.RecordPayment)
	protected.Patch("/payments/:id", write, invoiceHandler.UpdatePaymentStatus)

	// Audit
	auditHandler := NewAuditHandler(deps.Audit)
	protected.Get("/audit", read, auditHandler.Query)

	// Reconciliation
	reconciliationGroup := protected.Group("/reconciliation")
	reconciliationHandler := NewReconciliationHandler(deps.Reconciliation)
	reconciliationGroup.Get("/", read, reconciliationHandler.Report)
	reconciliationGroup.Get("/invoices", read, reconciliationHandler.InvoiceTotals)
	reconciliationGroup.Post("/recalculate", admin, reconciliationHandler.Recalculate)
}
