// Package cli is the editorshell command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"editorshell/config"
	"editorshell/controller"
	"editorshell/dialog"
	"editorshell/events"
	"editorshell/logging"
	"editorshell/menu"
	"editorshell/pool"
	"editorshell/project"
	"editorshell/store"
	"editorshell/websocket"
)

const shutdownTimeout = 5 * time.Second

type ctxKey string

const appConfigKey ctxKey = "appConfig"

func NewRootCommand() *cobra.Command {
	var configPath string
	var port uint
	var host string

	rootCmd := &cobra.Command{
		Use:           "editorshell",
		Short:         "editorshell serves the native side of the editor",
		Long:          `editorshell runs the backend the editor frontend talks to over websockets: project state, file access, menus and terminals.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}

			if err := logging.Init(logging.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cfg.LogOutput,
			}); err != nil {
				return fmt.Errorf("failed to init logging: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appConfigKey, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer logging.Sync()

			// a second signal during shutdown kills the process
			go func() {
				<-ctx.Done()
				stop()
			}()

			return serve(ctx, appConfig(cmd))
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (TOML)")
	rootCmd.PersistentFlags().UintVar(&port, "port", 1234, "The port to listen on")
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "The address to listen on")

	rootCmd.AddCommand(configCommand())
	return rootCmd
}

func appConfig(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(appConfigKey).(*config.Config)
}

func configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(appConfig(cmd))
		},
	}
}

func newPicker(name string, logger *zap.Logger) dialog.Picker {
	picker, err := dialog.NewExecPicker(name)
	if err != nil {
		logger.Warn("folder picker unavailable, open_project_dialog will select nothing", zap.Error(err))
		return dialog.Unavailable{}
	}
	logger.Info("using folder picker", zap.String("program", picker.Program))
	return picker
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Named("main")
	gin.SetMode(gin.ReleaseMode)

	settings := store.New(cfg.SettingsFile)
	logger.Info("using settings file", zap.String("path", settings.Path()))

	workers := pool.New(cfg.Workers)
	defer workers.Close()

	bus := events.NewBroadcaster()
	sessions := websocket.NewSessions()

	deps := &controller.Deps{
		Context:           ctx,
		Sessions:          sessions,
		Pool:              workers,
		Notifier:          bus,
		Projects:          project.NewManager(project.NewStorePersister(settings)),
		Picker:            newPicker(cfg.Picker, logger),
		Menu:              menu.NewController(bus),
		ConnectionTimeout: cfg.ConnectionTimeout,
		TerminalDir:       cfg.TerminalDir,
		AllowedOrigins:    cfg.AllowedOrigins,
		KnownHosts:        cfg.KnownHosts,
	}

	router, sshController := controller.NewRouter(deps)
	defer sshController.Close()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(cfg.Port), 10)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// websocket sessions are hijacked, Shutdown alone leaves them running
	srv.RegisterOnShutdown(sessions.CloseAll)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("started", zap.String("addr", srv.Addr), zap.Int("workers", cfg.Workers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
