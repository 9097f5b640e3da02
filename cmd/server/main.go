package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/orgpay/payroll/docs"
	"github.com/orgpay/payroll/internal/audit"
	"github.com/orgpay/payroll/internal/config"
	"github.com/orgpay/payroll/internal/database"
	"github.com/orgpay/payroll/internal/factory"
	"github.com/orgpay/payroll/internal/handlers"
	"github.com/orgpay/payroll/internal/logger"
	"github.com/orgpay/payroll/internal/metrics"
	mW "github.com/orgpay/payroll/internal/middleware"
	"github.com/orgpay/payroll/internal/services"
	"github.com/orgpay/payroll/internal/token"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Payroll Ledger API
// @version 1.0
// @description API for organization payroll ledgers and token disbursement
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	config.Load()

	log, err := logger.New(viper.GetString("log.level"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	docs.SwaggerInfo.Title = "Payroll Ledger API"
	docs.SwaggerInfo.Description = "API for organization payroll ledgers and token disbursement"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Event pipeline: structured log always, archive and metrics when their
	// backends are up.
	sinks := audit.MultiSink{audit.NewLogSink(log), metrics.NewSink()}

	db, err := database.InitDB()
	if err != nil {
		log.Fatal("database unreachable", zap.Error(err))
	}
	defer db.Close()

	archive := audit.NewArchive(db, log)
	sinks = append(sinks, archive)

	redisClient := database.InitRedis()
	if redisClient == nil {
		log.Warn("redis unreachable, sessions and receipts degraded")
	} else {
		defer redisClient.Close()
	}

	bank := token.NewBank()
	if devToken := viper.GetString("payroll.dev_token_address"); devToken != "" {
		bank.Register(devToken, token.NewMemory("Dev Token"))
		log.Info("dev token registered", zap.String("address", devToken))
	}

	f := factory.New(factory.Config{
		Owner:               viper.GetString("payroll.factory_owner"),
		DefaultFeeBPS:       viper.GetInt64("payroll.default_fee_bps"),
		DefaultAdvanceLimit: viper.GetInt64("payroll.default_advance_limit"),
		Tokens:              bank,
		Sink:                sinks,
	})
	if devToken := viper.GetString("payroll.dev_token_address"); devToken != "" {
		owner := viper.GetString("payroll.factory_owner")
		if err := f.AddToken(context.Background(), owner, "Dev Token", devToken); err != nil {
			log.Warn("dev token allow-list failed", zap.Error(err))
		}
	}

	authService := services.NewAuthService(db, redisClient, log)
	payrollService := services.NewPayrollService(f, archive, log)
	exportService := services.NewExportService(f, viper.GetString("payroll.export_currency"), log)
	receiptService := services.NewReceiptService(redisClient)
	receiptHandler := handlers.NewReceiptHandler(receiptService, f)

	mW.InitAuthMiddleware(redisClient)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/tokens", payrollService.ListTokens)
		r.Post("/receipts/verify", receiptHandler.VerifyReceipt)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/organizations", payrollService.CreateOrganization)
			r.Get("/organizations", payrollService.GetOrganization)
			r.Put("/organizations", payrollService.UpdateOrganization)
			r.Get("/organizations/events", payrollService.ListEvents)

			r.Post("/organizations/recipients", payrollService.CreateRecipient)
			r.Get("/organizations/recipients", payrollService.ListRecipients)
			r.Post("/organizations/recipients/batch", payrollService.BatchCreateRecipients)
			r.Get("/organizations/recipients/{wallet}", payrollService.GetRecipient)
			r.Put("/organizations/recipients/{wallet}", payrollService.UpdateRecipient)
			r.Put("/organizations/recipients/{wallet}/salary", payrollService.UpdateRecipientSalary)
			r.Put("/organizations/recipients/{wallet}/advance-limit", payrollService.SetRecipientAdvanceLimit)

			r.Post("/disbursements", payrollService.Disburse)
			r.Post("/disbursements/batch", payrollService.BatchDisburse)

			r.Get("/payments", payrollService.ListPayments)
			r.Get("/payments/export", exportService.ExportPayments)

			r.Post("/advances", payrollService.RequestAdvance)
			r.Get("/advances/pending", payrollService.ListPendingAdvances)
			r.Post("/advances/{wallet}/approve", payrollService.ApproveAdvance)
			r.Put("/advances/limit", payrollService.SetDefaultAdvanceLimit)

			r.Post("/receipts/generate", receiptHandler.GenerateReceipt)

			// Factory-owner operations
			r.Put("/admin/organizations/{owner}/fee", payrollService.SetTransactionFee)
			r.Put("/admin/organizations/{owner}/collector", payrollService.SetFeeCollector)
			r.Post("/admin/tokens", payrollService.AddToken)
			r.Delete("/admin/tokens/{address}", payrollService.RemoveToken)
		})
	})

	port := viper.GetString("server.port")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
