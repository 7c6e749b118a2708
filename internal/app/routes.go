package app

import (
	"net/http"

	"github.com/tobiloba/kudiwallet/internal/handler"
	"github.com/tobiloba/kudiwallet/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mid := middleware.New(app.errorHandler, app.Logger, app.helper, app.DB, app.Cache, &app.Config)

	routeHandler := handler.NewRouteHandler(&handler.RouteHandler{
		DB:         app.DB,
		Wallet:     app.Wallet,
		ErrHandler: app.errorHandler,
		Helper:     app.helper,
		Mailer:     app.Mailer,
		Config:     &app.Config,
	})

	mux.HandleFunc("GET /status", routeHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", routeHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", routeHandler.HandleAuthLogin)

	// gateway callbacks
	mux.HandleFunc("POST /webhooks/paystack", routeHandler.HandlePaystackWebhook)

	// wallet operations, JWT protected
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return mid.RequireAuthenticatedUser(h)
	}

	mux.Handle("GET /wallet", requireAuth(routeHandler.HandleWalletDetails))
	mux.Handle("GET /wallet/balance", requireAuth(routeHandler.HandleWalletBalance))
	mux.Handle("GET /wallet/transactions", requireAuth(routeHandler.HandleTransactionHistory))
	mux.Handle("POST /wallet/fund", requireAuth(routeHandler.HandleInitiateFunding))
	mux.Handle("POST /wallet/withdraw", requireAuth(routeHandler.HandleWithdraw))
	mux.Handle("POST /wallet/transfer", requireAuth(routeHandler.HandleTransfer))
	mux.Handle("GET /payments", requireAuth(routeHandler.HandleListPayments))
	mux.Handle("GET /payments/{reference}", requireAuth(routeHandler.HandleDepositStatus))

	// merchant API, key protected and rate limited
	requirePaymentsKey := mid.RequireApiKey(middleware.PermissionPayments)
	mux.Handle("POST /api/v1/payments", requirePaymentsKey(http.HandlerFunc(routeHandler.HandleApiInitiatePayment)))
	mux.Handle("GET /api/v1/payments/{reference}", requirePaymentsKey(http.HandlerFunc(routeHandler.HandleDepositStatus)))

	return mid.LogAccess(mid.RecoverPanic(mid.Authenticate(mux)))
}
