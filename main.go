package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/openshelf/backend/config"
	"github.com/openshelf/backend/handlers"
	"github.com/openshelf/backend/logger"
	"github.com/openshelf/backend/middleware"
	"github.com/openshelf/backend/service"
	"github.com/openshelf/backend/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	logg, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer logg.Sync()

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logg.Fatal("mongodb connect", "err", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logg.Warn("mongodb disconnect", "err", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logg.Fatal("mongodb indexes", "err", err)
	}
	logg.Info("connected to mongodb", "db", cfg.DBName)

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logg.Fatal("s3", "err", err)
		}
	} else {
		logg.Warn("AWS_S3_BUCKET not set; cover uploads disabled")
	}

	var mailer *service.Mailer
	if cfg.SMTPHost != "" {
		mailer = service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		logg.Warn("SMTP_HOST not set; verification mail disabled")
	}

	catalogHandler := &handlers.CatalogHandler{Items: db, S3: s3Service, Log: logg}
	librarianHandler := &handlers.LibrarianHandler{Items: db, S3: s3Service, Log: logg}
	uploadHandler := &handlers.UploadHandler{
		Items:    db,
		S3:       s3Service,
		Log:      logg,
		MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
	}
	authHandler := &handlers.AuthHandler{
		Users:        db,
		Mailer:       mailer,
		Log:          logg,
		JWTSecret:    cfg.JWTSecret,
		AppURL:       cfg.AppURL,
		DefaultEmail: cfg.AuthEmail,
		DefaultPass:  cfg.AuthPass,
	}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(middleware.RequestLogger(logg))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health-check", catalogHandler.HealthCheck)

	// Public catalog
	r.Get("/", catalogHandler.Index)
	r.Get("/library/{id}", catalogHandler.Show)
	r.Get("/library/{id}/cover", catalogHandler.Cover)

	// Accounts
	r.Post("/auth/register", authHandler.Register)
	r.Get("/auth/verify", authHandler.Verify)
	r.Post("/auth/login", authHandler.Login)

	// Borrowing needs a session but not a verified one
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Post("/library/{id}/borrow", catalogHandler.Borrow)
	})

	// Librarian management
	r.Route("/librarian", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RequireVerified)
		r.Get("/", librarianHandler.Dashboard)
		r.Get("/create", librarianHandler.CreateForm)
		r.Post("/", librarianHandler.Store)
		r.Get("/{id}", librarianHandler.Show)
		r.Get("/{id}/edit", librarianHandler.EditForm)
		r.Put("/{id}", librarianHandler.Update)
		r.Delete("/{id}", librarianHandler.Delete)
		r.Post("/{id}/cover", uploadHandler.UploadCover)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logg.Info("server listening", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown", "err", err)
	}
	logg.Info("server stopped")
}
