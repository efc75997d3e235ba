package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatflower/config"
	telegram "whatflower/internal/api"
	"whatflower/internal/container"
	"whatflower/internal/domain/port"
	"whatflower/internal/httpapi"
	"whatflower/internal/infrastructure/classifier"
	"whatflower/internal/infrastructure/storage"
	"whatflower/internal/infrastructure/vision"
	"whatflower/internal/infrastructure/wikipedia"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flowerClassifier, err := classifier.NewOnnxClassifier(cfg.ModelPath, cfg.MetadataPath, cfg.OnnxLibPath)
	if err != nil {
		log.Fatalf("Failed to initialize classifier: %v", err)
	}
	defer flowerClassifier.Close()

	encyclopedia := wikipedia.NewClient(cfg.WikipediaURL, cfg.WikipediaUserAgent, cfg.HTTPTimeout)

	var inspector port.PhotoInspector
	if cfg.QualityGate {
		if vision.Available {
			inspector = vision.NewGoCVInspector(vision.DefaultThresholds())
		} else {
			log.Println("QUALITY_GATE is set but the binary is built without the gocv tag, skipping quality gate")
		}
	}

	// История распознаваний: Postgres если задан DATABASE_URL, иначе память
	var lookups port.LookupRepository = storage.NewMemoryLookupRepository()
	if cfg.DatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		db, err := storage.OpenPostgres(dbCtx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		repo := storage.NewPostgresLookupRepository(db)
		err = repo.EnsureSchema(dbCtx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		lookups = repo
		log.Println("Lookup history: postgres")
	}

	userRepo := storage.NewMemoryUserRepository()

	// Собираем сервисы приложения
	appContainer := container.New(userRepo, flowerClassifier, encyclopedia, inspector, lookups)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(appContainer.IdentificationService)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, cfg.HistoryLimit, cfg.HTTPTimeout)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}

		log.Println("Bot is running...")
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Bot error: %v", err)
		}
	} else {
		log.Println("TELEGRAM_TOKEN is not set, serving HTTP API only")
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
