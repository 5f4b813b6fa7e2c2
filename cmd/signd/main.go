package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"

	"github.com/riichikun/materials-sign/internal/channel"
	"github.com/riichikun/materials-sign/internal/handlers"
	"github.com/riichikun/materials-sign/internal/lease"
	"github.com/riichikun/materials-sign/internal/messaging"
	"github.com/riichikun/materials-sign/internal/repository"
	"github.com/riichikun/materials-sign/internal/service"
)

func main() {
	log.Println("Sign Service starting...")

	db, err := initDatabase()
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}
	defer db.Close()

	if err := repository.InitializeSchema(db); err != nil {
		log.Fatalf("Schema initialization error: %v", err)
	}

	rabbitConfig := messaging.NewRabbitMQConfig()
	rabbitClient := messaging.NewRabbitMQClient(rabbitConfig)

	if err := rabbitClient.Connect(); err != nil {
		log.Fatalf("RabbitMQ connection error: %v", err)
	}
	defer rabbitClient.Close()

	// Dependencies
	publisher := messaging.NewPublisher(rabbitClient)

	signRepo := repository.NewSignRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	locker := lease.NewPostgresLocker(db)
	classifier := channel.NewClassifier(channel.DefaultRegistry()...)

	processor := service.NewReservationProcessor(orderRepo, signRepo, locker, classifier, publisher)
	orchestrator := service.NewReissueOrchestrator(orderRepo, signRepo, catalogRepo, publisher)
	canceler := service.NewCancelProcessor(signRepo)

	messageHandler := handlers.NewMessageHandler(processor, orchestrator, canceler)
	signHandler := handlers.NewSignHandler(orderRepo, signRepo, publisher)

	// Message consumption
	workerCount, _ := strconv.Atoi(getEnvOrDefault("WORKER_COUNT", "4"))
	consumer := messaging.NewConsumer(rabbitClient, "sign-service", workerCount)

	if err := messageHandler.StartConsuming(consumer); err != nil {
		log.Fatalf("RabbitMQ consumption error: %v", err)
	}

	// HTTP surface
	app := setupFiberApp()
	setupRoutes(app, signHandler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Sign Service closing...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	port := getEnvOrDefault("PORT", "8010")
	log.Printf("Sign Service listening: http://localhost:%s", port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server start error: %v", err)
	}
}

func initDatabase() (*sql.DB, error) {
	dbHost := getEnvOrDefault("DB_HOST", "localhost")
	dbPort := getEnvOrDefault("DB_PORT", "5432")
	dbUser := getEnvOrDefault("DB_USER", "postgres")
	dbPassword := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "sign_db")

	connectionString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName,
	)

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("database open error: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping error: %v", err)
	}

	log.Printf("Database connected: %s", dbName)
	return db, nil
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Sign Service v1.0",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, signHandler *handlers.SignHandler) {
	api := app.Group("/api/v1")

	api.Get("/health", signHandler.HealthCheck)

	orders := api.Group("/orders")
	orders.Post("/:order_event_id/signs/reissue", signHandler.Reissue)
	orders.Get("/:order_id/signs/report", signHandler.Report)

	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
