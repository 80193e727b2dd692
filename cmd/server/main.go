package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/network/netpoll"
	"github.com/spf13/cobra"

	"github.com/ekenesbek/8pilot/internal/config"
	"github.com/ekenesbek/8pilot/internal/handler"
	"github.com/ekenesbek/8pilot/internal/infrastructure/ai"
	infradb "github.com/ekenesbek/8pilot/internal/infrastructure/database"
	"github.com/ekenesbek/8pilot/internal/infrastructure/n8n"
	"github.com/ekenesbek/8pilot/internal/router"
	"github.com/ekenesbek/8pilot/internal/usecase"
	dbpkg "github.com/ekenesbek/8pilot/pkg/database"
	"github.com/ekenesbek/8pilot/pkg/logger"
)

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "8pilot-server",
	Short: "Chat persistence and workflow assistant API server",
	Long: `8pilot-server is an HTTP API server built with the Hertz framework.
It persists per-workflow chat dialogs, orchestrates AI chat turns and mirrors
workflow definitions to an n8n automation server.`,
	Version: version,
	Run:     runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	slog.Info("8pilot server starting...",
		"version", version,
		"config", cfgFile,
	)

	// Route Hertz's own logs through slog.
	hlog.SetLogger(logger.NewHertzSlogAdapter(slog.Default()))
	hlog.SetLevel(hlog.LevelInfo)

	dbClient, err := dbpkg.NewClient(cfg.Database, slog.Default())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpkg.Close(dbClient, slog.Default())

	// User components
	userRepo := infradb.NewUserRepository(dbClient)
	userUsecase := usecase.NewUserUsecase(userRepo, slog.Default())
	userHandler := handler.NewUserHandler(userUsecase, cfg.JWT.Secret, slog.Default())

	// Dialog components
	dialogRepo := infradb.NewDialogRepository(dbClient)
	dialogUsecase := usecase.NewDialogUsecase(dialogRepo, slog.Default())
	dialogHandler := handler.NewDialogHandler(dialogUsecase, slog.Default())

	// Chat components
	aiClient := ai.NewClient(cfg.AI, slog.Default())
	chatUsecase := usecase.NewChatUsecase(aiClient, dialogUsecase, slog.Default())
	chatHandler := handler.NewChatHandler(chatUsecase, slog.Default())

	// Automation components
	automationClient, err := n8n.NewClient(cfg.Automation, slog.Default())
	if err != nil {
		slog.Error("failed to create automation client", "error", err)
		os.Exit(1)
	}
	workflowUsecase := usecase.NewWorkflowUsecase(automationClient, dialogUsecase, slog.Default())
	workflowHandler := handler.NewWorkflowHandler(workflowUsecase, slog.Default())

	healthHandler := handler.NewHealthHandler(dbClient)

	slog.Info("handlers initialized")

	h := server.Default(
		server.WithHostPorts(cfg.GetServerAddr()),
		server.WithReadTimeout(cfg.GetReadTimeout()),
		server.WithWriteTimeout(cfg.GetWriteTimeout()),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodySize*1024*1024),
		server.WithTransport(netpoll.NewTransporter),
	)

	router.Setup(h, userHandler, dialogHandler, chatHandler, workflowHandler, healthHandler)

	slog.Info("server started successfully",
		"address", cfg.GetServerAddr(),
		"mode", cfg.Server.Mode,
	)

	go func() {
		if err := h.Run(); err != nil {
			slog.Error("server run failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
