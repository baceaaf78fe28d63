package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"schemakit/internal/config"
	"schemakit/internal/database"
	"schemakit/internal/dialect"
	"schemakit/internal/dynamic"
	"schemakit/internal/handlers"
	"schemakit/internal/repositories"
	"schemakit/internal/routes"
	"schemakit/internal/services"
)

func NewServer() *http.Server {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Bootstrap the definition store when admin credentials are provided.
	if os.Getenv("DB_ADMIN_USER") != "" {
		if err := database.EnsureDatabaseExists(cfg); err != nil {
			log.Fatalf("failed to ensure database exists: %v", err)
		}
	}

	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Separate database/sql handle for the sync engine's DDL; the dynamic
	// database may be a different backend than the definition store.
	dynamicDB, err := database.OpenSQL(cfg.DynamicDriver, cfg.DynamicDSN)
	if err != nil {
		log.Fatalf("failed to open dynamic database: %v", err)
	}
	d, err := dialect.GetDialect(cfg.DynamicDriver)
	if err != nil {
		log.Fatalf("failed to resolve dialect: %v", err)
	}
	if lite, ok := d.(*dialect.SQLiteDialect); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lite.DetectCapabilities(ctx, dynamicDB); err != nil {
			log.Fatalf("failed to detect sqlite capabilities: %v", err)
		}
	}

	// Dependency injection
	definitionRepo := repositories.NewDefinitionRepository(pool)
	schemaRepo := repositories.NewSchemaRepository(pool)

	registry := dynamic.NewRegistry()
	synchronizer := dynamic.NewSynchronizer(dynamicDB, d)

	conversionService := services.NewConversionService(definitionRepo)
	dynamicService := services.NewDynamicService(definitionRepo, registry, synchronizer)
	schemaService := services.NewSchemaService(schemaRepo)

	conversionHandler := handlers.NewConversionHandler(conversionService)
	dynamicHandler := handlers.NewDynamicHandler(dynamicService)
	schemaHandler := handlers.NewSchemaHandler(schemaService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	routes.RegisterRoutes(router, conversionHandler, dynamicHandler, schemaHandler)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
