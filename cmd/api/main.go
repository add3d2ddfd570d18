package main

import (
	"context"
	"log"
	"os"

	"card-grading-api/config"
	"card-grading-api/middleware"
	"card-grading-api/routes"
	"card-grading-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	// Workflow collaborators
	ledger := services.NewLedgerClient(nil)
	validator := services.NewTransitionValidator(config.LoadGradeScale())

	var ledgerWriter services.LedgerWriter
	var ledgerSource services.LedgerSource
	if ledger != nil {
		ledgerWriter = ledger
		ledgerSource = ledger
		log.Println("Ledger recording enabled")
	} else {
		log.Println("Ledger recording disabled (LEDGER_ENABLED != true)")
	}

	engine := services.NewWorkflowEngine(config.DB, validator, ledgerWriter)
	projector := services.NewHistoryProjector(config.DB, ledgerSource)
	notifier := services.NewNotifier(config.DB)

	var proofs *services.ProofStore
	if os.Getenv("MINIO_ENDPOINT") != "" {
		var err error
		proofs, err = services.NewProofStore(context.Background())
		if err != nil {
			log.Fatal("Failed to connect to proof image storage:", err)
		}
	} else {
		log.Println("Proof image storage disabled (MINIO_ENDPOINT unset)")
	}

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Setup routes
	routes.SetupRoutes(router, routes.Services{
		Engine:    engine,
		Projector: projector,
		Notifier:  notifier,
		Proofs:    proofs,
	})

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
