package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/config"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/database"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/logging"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/reports"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/safety"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fieldreport-api",
		Short: "Field report and safety talk backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("storage-backend", defaults.GetString("storage.backend"), "Storage backend (sqlite, memory)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("default-project", defaults.GetString("report.default_project"), "Project name used when an entry names none")
	cmd.PersistentFlags().String("timezone", defaults.GetString("report.timezone"), "IANA timezone calendar days are computed in")
	cmd.PersistentFlags().StringSlice("cors-allowed-origins", defaults.GetStringSlice("cors.allowed_origins"), "Origins allowed by CORS")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "storage.backend", "storage-backend")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "report.default_project", "default-project")
	bindFlag(cmd, "report.timezone", "timezone")
	bindFlag(cmd, "cors.allowed_origins", "cors-allowed-origins")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// openStore returns the configured key-value backend and a release func.
func openStore(appConfig config.AppConfig, logger *zap.Logger) (kvstore.Store, func(), error) {
	if appConfig.StorageBackend == config.StorageBackendMemory {
		logger.Warn("using in-memory storage; data is lost on exit")
		return kvstore.NewMemoryStore(), func() {}, nil
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
	return kvstore.NewSQLiteStore(db, time.Now), release, nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, release, err := openStore(appConfig, logger)
	if err != nil {
		return err
	}
	defer release()

	reportService, err := reports.NewService(reports.ServiceConfig{
		Store:              store,
		Clock:              time.Now,
		Location:           appConfig.Location,
		DefaultProjectName: appConfig.DefaultProjectName,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	idProvider := reports.NewUUIDProvider()
	safetyService, err := safety.NewService(safety.ServiceConfig{
		Store:      store,
		Clock:      time.Now,
		Location:   appConfig.Location,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		ReportService:  reportService,
		SafetyService:  safetyService,
		IDProvider:     idProvider,
		Realtime:       server.NewRealtimeDispatcher(),
		AllowedOrigins: appConfig.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("storage_backend", appConfig.StorageBackend),
			zap.String("timezone", appConfig.Location.String()))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
