package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vendfleet/vendfleet-backend/api/controllers"
	"github.com/vendfleet/vendfleet-backend/api/routes"
	authsvc "github.com/vendfleet/vendfleet-backend/internal/auth"
	inventorysvc "github.com/vendfleet/vendfleet-backend/internal/inventory"
	machinesvc "github.com/vendfleet/vendfleet-backend/internal/machines"
	notificationsvc "github.com/vendfleet/vendfleet-backend/internal/notifications"
	productsvc "github.com/vendfleet/vendfleet-backend/internal/products"
	salesvc "github.com/vendfleet/vendfleet-backend/internal/sales"
	usersvc "github.com/vendfleet/vendfleet-backend/internal/users"
	"github.com/vendfleet/vendfleet-backend/pkg/config"
	"github.com/vendfleet/vendfleet-backend/pkg/db"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/mercadopago"
	"github.com/vendfleet/vendfleet-backend/pkg/migrate"
	"github.com/vendfleet/vendfleet-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := mercadopago.NewClient(cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago client", err)
		os.Exit(1)
	}

	machineService, err := machinesvc.NewService(machinesvc.ServiceParams{
		Logger:    logg,
		Repo:      machinesvc.NewRepository(dbClient.DB()),
		Tolerance: cfg.Sweep.Tolerance,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create machine service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productsvc.ServiceParams{
		Logger: logg,
		Repo:   productsvc.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	inventoryService, err := inventorysvc.NewService(inventorysvc.ServiceParams{
		Logger: logg,
		Repo:   inventorysvc.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	notificationRepo := notificationsvc.NewRepository(dbClient.DB())
	notificationService, err := notificationsvc.NewService(notificationsvc.ServiceParams{
		Logger: logg,
		Repo:   notificationRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	saleService, err := salesvc.NewService(salesvc.ServiceParams{
		Logger:  logg,
		Repo:    salesvc.NewRepository(dbClient.DB()),
		Gateway: gateway,
		Audit:   notificationRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	userRepo := usersvc.NewRepository(dbClient.DB())
	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Logger:   logg,
		Repo:     userRepo,
		JWT:      cfg.JWT,
		Password: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Redis:  redisClient,
			ReadyChecks: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Machines:      machineService,
			Products:      productService,
			Inventory:     inventoryService,
			Sales:         saleService,
			Auth:          authService,
			Users:         userRepo,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
