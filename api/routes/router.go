package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendfleet/vendfleet-backend/api/controllers"
	webhookcontrollers "github.com/vendfleet/vendfleet-backend/api/controllers/webhooks"
	"github.com/vendfleet/vendfleet-backend/api/middleware"
	authsvc "github.com/vendfleet/vendfleet-backend/internal/auth"
	inventorysvc "github.com/vendfleet/vendfleet-backend/internal/inventory"
	machinesvc "github.com/vendfleet/vendfleet-backend/internal/machines"
	notificationsvc "github.com/vendfleet/vendfleet-backend/internal/notifications"
	productsvc "github.com/vendfleet/vendfleet-backend/internal/products"
	salesvc "github.com/vendfleet/vendfleet-backend/internal/sales"
	usersvc "github.com/vendfleet/vendfleet-backend/internal/users"
	"github.com/vendfleet/vendfleet-backend/pkg/config"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/redis"
)

// Deps bundle the wired services the router exposes.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	ReadyChecks   map[string]controllers.Pinger
	Machines      *machinesvc.Service
	Products      *productsvc.Service
	Inventory     *inventorysvc.Service
	Sales         *salesvc.Service
	Auth          *authsvc.Service
	Users         *usersvc.Repository
	Notifications *notificationsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	// Kiosk-facing surface: machines authenticate out of band (private APN),
	// so heartbeats, checkout, and status polling stay public.
	r.Route("/api/v1", func(r chi.Router) {
		r.Patch("/machines/{machineId}/status", controllers.ReportHeartbeat(deps.Machines, logg))
		r.Post("/sales/create-payment", controllers.CreatePayment(deps.Sales, logg))
		r.Get("/sales/status/{vendingId}", controllers.GetSaleStatus(deps.Sales, logg))
		r.Post("/webhooks/mercadopago", webhookcontrollers.MercadoPagoWebhook(deps.Sales, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
		})

		// Operator dashboard surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/machines", func(r chi.Router) {
				r.Post("/", controllers.RegisterMachine(deps.Machines, logg))
				r.Get("/", controllers.ListMachines(deps.Machines, logg))
				r.Get("/{machineId}", controllers.GetMachine(deps.Machines, logg))
				r.Get("/{machineId}/inventory", controllers.ListInventory(deps.Inventory, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(deps.Products, logg))
				r.Get("/", controllers.ListProducts(deps.Products, logg))
				r.Get("/{sku}", controllers.GetProduct(deps.Products, logg))
				r.Patch("/{sku}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/{sku}", controllers.DeleteProduct(deps.Products, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Put("/", controllers.UpsertInventory(deps.Inventory, logg))
				r.Post("/adjust", controllers.AdjustInventory(deps.Inventory, logg))
				r.Delete("/{machineId}/{channelId}", controllers.DeleteInventory(deps.Inventory, logg))
			})

			r.Get("/sales", controllers.ListSales(deps.Sales, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.Me(deps.Auth, logg))
				r.Put("/me/preferences", controllers.UpdateMyPreferences(deps.Users, deps.Auth, logg))
				r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).Get("/", controllers.ListUsers(deps.Users, logg))
			})
		})
	})

	return r
}
