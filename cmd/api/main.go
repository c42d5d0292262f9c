package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uniride-app/uniride-backend/internal/database"
	"github.com/uniride-app/uniride-backend/internal/handlers"
	"github.com/uniride-app/uniride-backend/internal/middleware"
	"github.com/uniride-app/uniride-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Firebase (optional - will log warning if not configured)
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	r.Use(middleware.MetricsMiddleware())

	// Serve static files
	r.Static("/uploads", "/app/uploads")

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(db, hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
				users.POST("/role", handlers.SwitchRole(db))
				users.POST("/avatar", handlers.UploadAvatar(db))
				users.GET("/:id/ratings", handlers.GetUserRatings(db))
			}

			// Rides routes
			rides := protected.Group("/rides")
			{
				rides.POST("", handlers.CreateRide(db, hub))
				rides.GET("/search", handlers.SearchRides(db))
				rides.GET("/nearby", handlers.GetNearbyRides(db))
				rides.GET("/estimate", handlers.EstimateCost())
				rides.GET("/driver", handlers.GetDriverRides(db))
				rides.GET("/mine", handlers.GetMyRides(db))
				rides.POST("/archive", handlers.ArchiveRides(db))
				rides.GET("/:id", handlers.GetRideByID(db))
				rides.PUT("/:id", handlers.UpdateRide(db, hub))
				rides.PATCH("/:id/status", handlers.UpdateRideStatus(db, hub))
				rides.POST("/:id/complete", handlers.CompleteRide(db, hub))
				rides.POST("/:id/cancel", handlers.CancelRide(db, hub))
				rides.GET("/:id/bookings", handlers.GetRideBookings(db))
				rides.POST("/:id/rate", handlers.RateRide(db))

				// Ride chat
				rides.POST("/:id/chat", handlers.SendChatMessage(db, hub))
				rides.GET("/:id/chat", handlers.GetChatMessages(db))
				rides.POST("/:id/typing", handlers.StartTyping(db, hub))
				rides.DELETE("/:id/typing", handlers.StopTyping(db, hub))
				rides.GET("/:id/typing", handlers.GetTypingUsers(db))

				// Live tracking
				rides.POST("/:id/location", handlers.UpdateLocation(db, hub))
				rides.GET("/:id/locations", handlers.GetRideLocations(db))
				rides.DELETE("/:id/location", handlers.RemoveLocation(db, hub))
			}

			// Bookings routes
			bookings := protected.Group("/bookings")
			{
				bookings.POST("", handlers.CreateBooking(db, hub))
				bookings.GET("/mine", handlers.GetMyBookings(db))
				bookings.POST("/:id/cancel", handlers.CancelBooking(db, hub))
			}

			// Activity feed
			protected.GET("/activity", handlers.GetActivityFeed(db))

			// Leaderboard
			protected.GET("/leaderboard", handlers.GetLeaderboard(db))
			protected.GET("/leaderboard/me", handlers.GetMyRank(db))

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterFCMToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveFCMToken(db))
				notifications.POST("/test", handlers.TestNotification(db))
				notifications.GET("/preferences", handlers.GetNotificationPreferences(db))
				notifications.PUT("/preferences", handlers.UpdateNotificationPreferences(db))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
