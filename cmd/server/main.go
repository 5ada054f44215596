package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/babelchat/backend/internal/auth"
	"github.com/babelchat/backend/internal/config"
	"github.com/babelchat/backend/internal/database"
	"github.com/babelchat/backend/internal/handlers"
	"github.com/babelchat/backend/internal/metrics"
	"github.com/babelchat/backend/internal/middleware"
	"github.com/babelchat/backend/internal/routes"
	"github.com/babelchat/backend/internal/services"
	"github.com/babelchat/backend/internal/store"
	"github.com/babelchat/backend/internal/translate"
	"github.com/babelchat/backend/internal/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Connecting to MongoDB...")
	mongoClient, db, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.DisconnectMongo(mongoClient)

	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Store handle and its change bus: created once, passed by reference
	// everywhere.
	bus := store.NewRedisBus(rdb)
	st := store.New(db, bus)
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Printf("WARNING: failed to ensure indexes: %v", err)
	}
	subscriber := store.NewSubscriber(st, bus)

	// Services
	userService := services.NewUserService(st)
	chatService := services.NewChatService(st)
	sessionService := services.NewSessionService(st, chatService)

	// Translation workflow triggers
	runner := store.NewTriggerRunner(bus)
	workers.NewTranslateMessage(st).Register(runner)
	workers.NewApplyTranslation(st).Register(runner)
	switch cfg.Translator {
	case config.TranslatorEcho:
		workers.NewTranslatorBridge(st, translate.Echo{}).Register(runner)
		log.Println("translator: echo")
	case config.TranslatorDictionary:
		workers.NewTranslatorBridge(st, translate.Dictionary{Entries: translate.DemoEntries}).Register(runner)
		log.Println("translator: dictionary")
	default:
		// Requests are fulfilled by an external translation system.
		log.Println("translator: external")
	}
	go runner.Run(ctx)

	// Verifier is the boundary to the identity provider; only the dev
	// implementation ships with this repo.
	var verifier auth.Verifier = auth.NewDevVerifier()
	if cfg.IsProduction() {
		log.Println("WARNING: production ENV with the development token verifier")
	}

	authHandler := &handlers.AuthHandler{Verifier: verifier, Users: userService}
	h := routes.Handlers{
		Auth:     authHandler,
		Sessions: &handlers.SessionHandler{Auth: authHandler, Sessions: sessionService},
		Chat:     &handlers.ChatHandler{Chat: chatService},
		Stream:   &handlers.ChatStreamHandler{Subscriber: subscriber},
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(rdb))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	routes.SetupRoutes(r, h)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Printf("babelchat backend running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
}
