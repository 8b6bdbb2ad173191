package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gamestore-labs/gamestore/internal/accounts"
	"github.com/gamestore-labs/gamestore/internal/auth"
	"github.com/gamestore-labs/gamestore/internal/cart"
	"github.com/gamestore-labs/gamestore/internal/catalog"
	"github.com/gamestore-labs/gamestore/internal/config"
	"github.com/gamestore-labs/gamestore/internal/domain"
	"github.com/gamestore-labs/gamestore/internal/messaging"
	"github.com/gamestore-labs/gamestore/internal/orders"
	"github.com/gamestore-labs/gamestore/internal/telemetry"
)

const (
	serviceName    = "gamestore-api"
	serviceVersion = "0.1.0"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, serviceVersion, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var placedEvents, paidEvents orders.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		placedProducer := messaging.NewProducer(cfg.KafkaBrokers, domain.TopicOrderPlaced)
		defer func() { _ = placedProducer.Close() }()
		placedEvents = placedProducer

		paidProducer := messaging.NewProducer(cfg.KafkaBrokers, domain.TopicOrderPaid)
		defer func() { _ = paidProducer.Close() }()
		paidEvents = paidProducer
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	userRepo := accounts.NewUserRepository(db)
	accountsHandler := accounts.NewHandler(userRepo, hasher, tokens, accounts.FirstUserAdminPolicy{}, logger)

	gameRepo := catalog.NewGameRepository(db)
	catalogHandler := catalog.NewHandler(gameRepo, logger)

	cartRepo := cart.NewCartRepository(db)
	cartHandler := cart.NewHandler(cartRepo, logger)

	orderRepo := orders.NewOrderRepository(db)
	engine := orders.NewEngine(db, orderRepo, cartRepo, placedEvents, logger)
	recorder := orders.NewPaymentRecorder(db, paidEvents, logger)
	orderHandler := orders.NewHandler(engine, recorder, logger)

	route := telemetry.WithHTTPRoute

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/games", route(catalogHandler.HandleList))
	mux.HandleFunc("GET /api/games/{id}", route(catalogHandler.HandleGet))
	mux.HandleFunc("POST /api/games", route(auth.RequireAdmin(tokens, catalogHandler.HandleCreate)))
	mux.HandleFunc("PUT /api/games/{id}", route(auth.RequireAdmin(tokens, catalogHandler.HandleUpdate)))
	mux.HandleFunc("DELETE /api/games/{id}", route(auth.RequireAdmin(tokens, catalogHandler.HandleDelete)))

	mux.HandleFunc("POST /api/users/signup", route(accountsHandler.HandleSignup))
	mux.HandleFunc("POST /api/auth/token", route(accountsHandler.HandleLogin))
	mux.HandleFunc("GET /api/users/me", route(auth.RequireUser(tokens, accountsHandler.HandleMe)))

	mux.HandleFunc("GET /api/cart", route(auth.RequireUser(tokens, cartHandler.HandleGetCart)))
	mux.HandleFunc("POST /api/cart/add", route(auth.RequireUser(tokens, cartHandler.HandleAdd)))
	mux.HandleFunc("PUT /api/cart/items/{gameID}", route(auth.RequireUser(tokens, cartHandler.HandleUpdateItem)))
	mux.HandleFunc("DELETE /api/cart/items/{gameID}", route(auth.RequireUser(tokens, cartHandler.HandleRemoveItem)))
	mux.HandleFunc("POST /api/cart/checkout", route(auth.RequireUser(tokens, orderHandler.HandleCheckout)))

	mux.HandleFunc("POST /api/orders", route(auth.RequireUser(tokens, orderHandler.HandleCreate)))
	mux.HandleFunc("GET /api/orders/{id}", route(auth.RequireUser(tokens, orderHandler.HandleGet)))
	mux.HandleFunc("GET /api/users/orders", route(auth.RequireUser(tokens, orderHandler.HandleListMine)))
	mux.HandleFunc("POST /api/payments", route(auth.RequireUser(tokens, orderHandler.HandleRecordPayment)))

	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(mux, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gamestore api", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
