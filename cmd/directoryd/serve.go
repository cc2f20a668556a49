package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Yundera/mesh-router-backend/server"
	"github.com/Yundera/mesh-router-backend/server/activity"
	"github.com/Yundera/mesh-router-backend/server/auth"
	"github.com/Yundera/mesh-router-backend/server/audit"
	"github.com/Yundera/mesh-router-backend/server/ca"
	"github.com/Yundera/mesh-router-backend/server/cleanup"
	shttp "github.com/Yundera/mesh-router-backend/server/http"
	"github.com/Yundera/mesh-router-backend/server/identity"
	"github.com/Yundera/mesh-router-backend/server/routestore"
	"github.com/Yundera/mesh-router-backend/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the directory service's HTTP API and cleanup scheduler",
	Run:   runServe,
}

func runServe(_ *cobra.Command, _ []string) {
	_ = godotenv.Load() // optional; environment variables already set take precedence

	cfg, err := server.LoadConfig()
	if err != nil {
		fatalf("config: %v", err)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := util.InitLog(cfg.LogLevel, logFileFlag); err != nil {
		fatalf("log init: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.StoreURL)
	if err != nil {
		fatalf("parse STORE_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		fatalf("connect identity database: %v", err)
	}

	docStore, err := identity.NewGormStore(db)
	if err != nil {
		fatalf("migrate identity store: %v", err)
	}
	registry := identity.NewRegistry(docStore)
	authenticator := auth.NewAuthenticator(registry)
	activityTracker := activity.NewTracker(redisClient)
	routeStore := routestore.NewStore(redisClient, time.Duration(cfg.RoutesTTLSeconds)*time.Second, activityTracker)

	auditLog, err := audit.Open(cfg.DomainLogPath)
	if err != nil {
		fatalf("open audit log: %v", err)
	}
	defer auditLog.Close()

	authority := ca.New(ca.Config{
		CertPath:      cfg.CACertPath,
		KeyPath:       cfg.CAKeyPath,
		Product:       "mesh-router-directory",
		Org:           "Yundera",
		Unit:          "Directory",
		ValidityHours: cfg.CertValidityHours,
		ServerDomain:  cfg.ServerDomain,
	})
	if err := authority.Bootstrap(); err != nil {
		fatalf("bootstrap CA: %v", err)
	}

	cleanupController := cleanup.NewController(registry, activityTracker, auditLog, cfg.InactiveDomainDays)
	cronRunner, err := cleanup.NewCronRunner(cfg.CleanupCronSchedule, cleanupController)
	if err != nil {
		fatalf("parse CLEANUP_CRON_SCHEDULE: %v", err)
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	svc := &server.Service{
		Config:     cfg,
		Registry:   registry,
		Auth:       authenticator,
		Routes:     routeStore,
		Activity:   activityTracker,
		Cleanup:    cleanupController,
		CronRunner: cronRunner,
		CA:         authority,
		AuditLog:   auditLog,
	}

	reg := prometheus.NewRegistry()
	router := shttp.NewRouter(svc, reg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("directory service listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-stopCh
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
