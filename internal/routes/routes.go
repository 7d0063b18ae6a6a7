package routes

import (
	"time"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/handlers"
	"github.com/example/bazaar/internal/middleware"
	"github.com/example/bazaar/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	env *response.Envelope,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	addressHandler *handlers.AddressHandler,
	productHandler *handlers.ProductHandler,
	categoryHandler *handlers.CategoryHandler,
	listsHandler *handlers.ListsHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return env.Error(c, apierr.New(apierr.TooManyRequests))
		},
	}))

	api.Get("/health", handlers.Health)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return env.Error(c, apierr.New(apierr.TooManyRequests))
		},
	}))
	auth.Post("/in", authHandler.In)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/recover", authHandler.Recover)
	auth.Post("/verify", authHandler.Verify)

	// Account endpoints authenticate per request through the resolver.
	user := api.Group("/user")
	user.Post("/out", userHandler.Out)
	user.Post("/link", userHandler.Link)
	user.Put("/update", userHandler.Update)
	user.Delete("/delete", userHandler.Delete)

	address := api.Group("/address")
	address.Get("/postcode", addressHandler.Postcode)
	address.Get("/list", addressHandler.List)
	address.Get("/search", addressHandler.Search)
	address.Post("/add", addressHandler.Add)
	address.Get("/show", addressHandler.Show)
	address.Put("/update", addressHandler.Update)
	address.Delete("/delete", addressHandler.Delete)

	product := api.Group("/product")
	product.Get("/search", productHandler.Search)
	product.Get("/show", productHandler.Show)

	api.Get("/category/list", categoryHandler.List)

	handcart := api.Group("/handcart")
	handcart.Get("/list", listsHandler.List(handlers.ListHandcart))
	handcart.Get("/search", listsHandler.Search(handlers.ListHandcart))
	handcart.Post("/add", listsHandler.Add(handlers.ListHandcart))
	handcart.Put("/update", listsHandler.UpdateQuantity(handlers.ListHandcart))
	handcart.Delete("/remove", listsHandler.Remove(handlers.ListHandcart))

	favorites := api.Group("/favorites")
	favorites.Get("/list", listsHandler.List(handlers.ListFavorites))
	favorites.Get("/search", listsHandler.Search(handlers.ListFavorites))
	favorites.Post("/add", listsHandler.Add(handlers.ListFavorites))
	favorites.Put("/update", listsHandler.UpdateQuantity(handlers.ListFavorites))
	favorites.Delete("/remove", listsHandler.Remove(handlers.ListFavorites))

	orders := api.Group("/orders")
	orders.Get("/list", listsHandler.List(handlers.ListOrders))
	orders.Get("/search", listsHandler.Search(handlers.ListOrders))
	orders.Post("/place", listsHandler.Place)

	// Back-office catalog management (bearer JWT + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg, env), middleware.AdminRequired(db, cfg, env))
	admin.Post("/products", adminHandler.CreateProduct)
	admin.Put("/products/:id", adminHandler.UpdateProduct)
	admin.Post("/brands", adminHandler.CreateBrand)
	admin.Post("/categories", adminHandler.CreateCategory)
	admin.Post("/postcodes", adminHandler.CreatePostcode)

	// Everything else is a uniform RESOURCE_NOT_FOUND envelope.
	app.Use(func(c *fiber.Ctx) error {
		return env.Error(c, apierr.New(apierr.ResourceNotFound))
	})
}
