package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"google.golang.org/grpc"

	"dishpatch.dev/internal/auth"
	"dishpatch.dev/internal/config"
	"dishpatch.dev/internal/httpapi"
	"dishpatch.dev/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// User store: Postgres when a DSN is configured, in-memory otherwise.
	var (
		db    *sql.DB
		store auth.UserStore
	)
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		store = auth.NewPGStore(db)
	} else {
		log.Printf("no DISHPATCH_PG_DSN set, using in-memory user store")
		store = auth.NewMemoryStore()
	}

	passwords := auth.NewPasswordPolicy(cfg.PasswordConfig())
	tokens, err := auth.NewTokenAuthority(cfg.TokenConfig(),
		auth.WithRevoker(auth.NewMemoryRevocationList()))
	if err != nil {
		log.Fatalf("token authority: %v", err)
	}
	identity, err := auth.NewIdentityService(store, passwords, tokens)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, identity, tokens, auth.NewAccessPolicy())
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)
	api.SetMaxBodyBytes(cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv := grpc.NewServer()
	httpapi.NewGRPCServer(httpapi.ReadyProbe{DB: db}).Register(grpcSrv)

	log.Printf("Starting dishpatch-auth %s on %s (grpc %s)", version, cfg.HTTPAddr, cfg.GRPCAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		if err := grpcSrv.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	grpcSrv.GracefulStop()
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
