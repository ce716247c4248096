package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/ilia-darchiashvili/bike-rentals/internal/auth"
	"github.com/ilia-darchiashvili/bike-rentals/internal/bike"
	"github.com/ilia-darchiashvili/bike-rentals/internal/config"
	"github.com/ilia-darchiashvili/bike-rentals/internal/email"
	"github.com/ilia-darchiashvili/bike-rentals/internal/geocode"
	"github.com/ilia-darchiashvili/bike-rentals/internal/reservation"
	"github.com/ilia-darchiashvili/bike-rentals/internal/upload"
	"github.com/ilia-darchiashvili/bike-rentals/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, geocoder *geocode.Client, uploads *upload.Store) *Server {
	router := gin.Default()
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userService := user.NewService(user.NewRepository(db), cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	bikeService := bike.NewService(bike.NewRepository(db), geocoder, uploads)
	bikeHandler := bike.NewHandler(bikeService, uploads)

	reservationService := reservation.NewService(reservation.NewRepository(db), emailService)
	reservationHandler := reservation.NewHandler(reservationService)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	router.GET("/bikes", bikeHandler.GetBikes)
	router.GET("/bikes/available", bikeHandler.FilterAvailable)
	router.GET("/bikes/:bikeID", bikeHandler.GetBikeByID)
	router.Static("/uploads/images", cfg.UploadDir)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/me/reserved_bikes", userHandler.GetMyReservedBikes)
		protected.PATCH("/bikes/:bikeID/reserve", reservationHandler.Reserve)
		protected.PATCH("/bikes/:bikeID/cancel_reserve", reservationHandler.CancelReserve)
	}

	managerMiddleware := auth.RequireRole(auth.RoleManager)
	manager := router.Group("/")
	manager.Use(authMiddleware, managerMiddleware)
	{
		manager.POST("/bikes", bikeHandler.CreateBike)
		manager.PATCH("/bikes/:bikeID", bikeHandler.UpdateBike)
		manager.DELETE("/bikes/:bikeID", bikeHandler.DeleteBike)
		manager.POST("/bikes/:bikeID/image", bikeHandler.UploadImage)

		manager.GET("/users", userHandler.ListUsers)
		manager.GET("/users/:userID", userHandler.GetUser)
		manager.PATCH("/users/:userID", userHandler.UpdateUser)
		manager.DELETE("/users/:userID", userHandler.DeleteUser)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http.Addr = ":" + port
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware(origins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if origins == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}

	return cors.New(cfg)
}
