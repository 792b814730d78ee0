package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/config"
	logpkg "github.com/agarwalpriyanshu/Dental-CLinic/internal/logger"
)

var (
	// Global flags
	configPath string
	backend    string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clinic-data",
	Short: "Clinic patient/appointment data service",
	Long: `clinic-data owns the clinic's users, patients and incidents, mirrors
every change to the configured key-value backend and serves the JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv("CLINIC_CONFIG", configPath); err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backend != "" {
			cfg.Storage.Backend = backend
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		log, err = logpkg.New(logpkg.Options{
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Output:  cfg.Log.Output,
			Service: "clinic-data",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides CLINIC_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend: leveldb|redis|postgres|memory")

	rootCmd.AddCommand(serveCmd, exportCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
