package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"atlas-score-engine/handlers"
	"atlas-score-engine/models"
	"atlas-score-engine/services"
	"atlas-score-engine/store"
	"atlas-score-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originsList := strings.Split(allowedOrigins, ",")
	for i, origin := range originsList {
		originsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originsList, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-Secret",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Game{},
		&models.StatSnapshot{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// R2 is optional: without it the daily leaderboard archive stays off.
	if os.Getenv("R2_ACCESS_KEY_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 credentials not set, leaderboard archiving disabled")
	}

	players := store.NewGormPlayerStore(db)
	games := store.NewGormGameStore(db)
	snapshots := store.NewGormSnapshotStore(db)

	ratingService := services.NewRatingService(players)
	gameService := services.NewGameService(players, games, snapshots, ratingService)

	cacheTTL := services.DefaultCacheTTL
	if raw := os.Getenv("LEADERBOARD_CACHE_TTL_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			cacheTTL = time.Duration(seconds) * time.Second
		}
	}
	leaderboardService := services.NewLeaderboardService(players, snapshots, services.NewRankCache(cacheTTL))

	retention := services.DefaultSnapshotRetention
	if raw := os.Getenv("SNAPSHOT_RETENTION_DAYS"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			retention = time.Duration(days) * 24 * time.Hour
		}
	}
	leaderboardService.StartMaintenanceScheduler(retention)

	handlers.SetupLeaderboardRoutes(app, leaderboardService, ratingService, players)
	handlers.SetupGameRoutes(app, gameService, players)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Leaderboard cache TTL: %s", cacheTTL)
	log.Printf("✅ Snapshot retention: %s", retention)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(originsList, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
