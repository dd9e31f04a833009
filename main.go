package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"astrocyber/internal/config"
	"astrocyber/internal/console"
	"astrocyber/internal/keyderive"
	"astrocyber/internal/logging"
	"astrocyber/internal/oracle"
	"astrocyber/internal/session"
)

var (
	envFile string
	verbose bool
	backend string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "astrocyber",
	Short: "ASTRO-CYBER terminal",
	Long: `ASTRO-CYBER is a themed terminal guarded by a cosmic key.

Type 'login to astrocyber', submit your origin data, then derive your key
from the riddle. Once the key is accepted, 'ask' queries the oracle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTerminal,
}

var keyCmd = &cobra.Command{
	Use:   "key <YYYY-MM-DD> <HH:MM>",
	Short: "Print the cosmic key for an origin date and clock",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyderive.Generate(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&backend, "backend", "", "oracle backend: rest or sdk (overrides ASTROCYBER_BACKEND)")

	rootCmd.AddCommand(keyCmd)
}

func runTerminal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Backend = backend
	}

	ctx := cmd.Context()
	b, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	client := oracle.NewClient(b, oracle.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
	}, logger.Named("oracle"))

	var con *console.Console
	ctrl := session.NewController(client,
		session.WithLogger(logger.Named("session")),
		session.WithContext(ctx),
		session.WithNotify(func() { con.Refresh() }),
	)
	con = console.New(ctrl, cmd.InOrStdin(), cmd.OutOrStdout())

	logger.Info("terminal started", zap.String("backend", cfg.Backend), zap.String("model", cfg.Model))
	return con.Run(ctx)
}

func newBackend(ctx context.Context, cfg *config.Config) (oracle.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendREST:
		b := oracle.NewRESTBackend(oracle.RESTConfig{
			Endpoint:        cfg.Endpoint,
			Model:           cfg.Model,
			APIKey:          cfg.APIKey,
			MaxOutputTokens: cfg.MaxOutputTokens,
		}, &http.Client{Timeout: cfg.RequestTimeout})
		return b, func() {}, nil
	case config.BackendSDK:
		b, err := oracle.NewSDKBackend(ctx, cfg.APIKey, cfg.Model, cfg.MaxOutputTokens)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
