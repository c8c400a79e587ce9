package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/gruyaume/goops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/lexfrei/spring-music-operator/internal/charm"
	"github.com/lexfrei/spring-music-operator/internal/config"
)

//nolint:gochecknoglobals // set by SetVersion from main
var (
	version = "development"
	gitsha  = "development"
)

func SetVersion(ver, sha string) {
	version = ver
	gitsha = sha
}

//nolint:gochecknoglobals // cobra command pattern
var rootCmd = &cobra.Command{
	Use:   "spring-music-operator",
	Short: "Juju charm for the Spring Music application",
	Long: `A Kubernetes charm that runs Spring Music under Pebble.
Juju invokes it once per hook through the dispatch script. It fixes the ports
of the application Service, keeps the Pebble layer in line with the ingress
and log sink relations, and publishes scrape jobs for Prometheus.`,
	RunE:          runCharm,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	rootCmd.Flags().Int(config.KeyPort, config.DefaultPort, "Port Spring Music listens on")
	rootCmd.Flags().String(config.KeyPebbleSocket, "", "Pebble socket of the workload container (defaults to the socket Juju mounts for it)")
	rootCmd.Flags().String(config.KeyStateBackend, config.DefaultStateBackend, "Where charm state is kept (configmap, juju)")
	rootCmd.Flags().String(config.KeyClusterDomain, config.DefaultClusterDomain, "Kubernetes cluster domain")
	rootCmd.Flags().String(config.KeyMetricsTextfile, "", "Write hook metrics to this file in Prometheus text format")
	rootCmd.Flags().String(config.KeyCharmDir, "", "Charm directory (defaults to JUJU_CHARM_DIR)")

	_ = viper.BindPFlags(rootCmd.Flags())
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix("SPRING_MUSIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(config.KeyPort, config.DefaultPort)
	viper.SetDefault(config.KeyStateBackend, config.DefaultStateBackend)
	viper.SetDefault(config.KeyClusterDomain, config.DefaultClusterDomain)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "json")
}

func Execute() error {
	return errors.Wrap(rootCmd.Execute(), "command execution failed")
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo

	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if viper.GetString("log-format") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

//nolint:noinlineerr // inline error handling is fine here
func runCharm(_ *cobra.Command, _ []string) error {
	logger := setupLogger()
	slog.SetDefault(logger)

	ctrl.SetLogger(logr.FromSlogHandler(logger.Handler()))

	hookContext := goops.NewHookContext()

	cfg, err := config.Load(viper.GetViper(), hookContext.Environment)
	if err != nil {
		logger.Error("invalid hook context", "error", err)

		return errors.Wrap(err, "failed to load configuration")
	}

	logger.Info("starting spring-music-operator",
		"version", version,
		"gitsha", gitsha,
		"hook", cfg.Hook,
		"unit", cfg.Unit,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := charm.Run(ctx, cfg, hookContext.Commands); err != nil {
		logger.Error("hook failed", "hook", cfg.Hook, "error", err)

		return errors.Wrap(err, "failed to run charm")
	}

	return nil
}
