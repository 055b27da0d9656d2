package router

import (
	"time"

	"sokoni/config"
	"sokoni/internal/handler"
	"sokoni/internal/middleware"
	"sokoni/internal/repository"
	"sokoni/internal/service"
	"sokoni/pkg/staging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, store staging.BlobStore) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	productRepo := repository.NewProductRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Staging pipelines share the scratch dir but use distinct prefixes and
	// Cloudinary folders.
	paymentStager := staging.New(cfg.Staging.ScratchDir, cfg.Cloudinary.Folder+"/payments", "payment", store)
	catalogStager := staging.New(cfg.Staging.ScratchDir, cfg.Cloudinary.Folder+"/catalog", "catalog", store)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, paymentStager)
	orderSvc := service.NewOrderService(orderRepo, productRepo, serviceRepo, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	productHandler := handler.NewProductHandler(productRepo, catalogStager)
	serviceHandler := handler.NewServiceHandler(serviceRepo, catalogStager)
	orderHandler := handler.NewOrderHandler(orderSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
		}

		users := api.Group("/users")
		users.Use(authMw)
		{
			users.GET("/me", userHandler.CurrentUser)
			users.PATCH("/me", userHandler.UpdateProfile)
			users.PATCH("/me/location", userHandler.UpdateLocation)
			users.GET("", adminMw, userHandler.List)
			users.DELETE("/:id", adminMw, userHandler.Delete)
			users.PATCH("/:id/credits", adminMw, userHandler.UpdateCredits)
		}

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("/history", paymentHandler.History)
			payments.GET("", adminMw, paymentHandler.ListAll)
			payments.GET("/:id", adminMw, paymentHandler.GetByID)
			payments.PATCH("/:id/status", adminMw, paymentHandler.SetStatus)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.GetByID)
			products.GET("/category/:category", productHandler.ListByCategory)
			products.POST("", authMw, adminMw, productHandler.Create)
			products.PATCH("/:id", authMw, adminMw, productHandler.Update)
			products.DELETE("/:id", authMw, adminMw, productHandler.Delete)
			products.PATCH("/stock/:id", authMw, adminMw, productHandler.UpdateStock)
		}

		services := api.Group("/services")
		{
			services.GET("", serviceHandler.List)
			services.GET("/:id", serviceHandler.GetByID)
			services.GET("/category/:category", serviceHandler.ListByCategory)
			services.POST("", authMw, adminMw, serviceHandler.Create)
			services.PATCH("/:id", authMw, adminMw, serviceHandler.Update)
			services.DELETE("/:id", authMw, adminMw, serviceHandler.Delete)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("", orderHandler.Place)
			orders.GET("/my-orders", orderHandler.MyOrders)
			orders.GET("", adminMw, orderHandler.ListAll)
			orders.GET("/nearby", adminMw, orderHandler.Nearby)
			orders.PATCH("/:id/status", adminMw, orderHandler.SetStatus)
			orders.PATCH("/:id/payment-status", adminMw, orderHandler.VerifyPayment)
		}
	}

	return r
}
