// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the affiliation-engine CLI.
// Implements: docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/affiliation-engine/internal/logging"
	"github.com/pdiddy/affiliation-engine/internal/secrets"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the affiliation-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "affiliation-engine",
	Short: "Detect and categorize EMBL publications from author affiliations",
	Long: `affiliation-engine reads PubMed identifiers, fetches each publication's
author affiliations from Europe PMC, and decides which publications come from
EMBL and from which site. Organization publications are then categorized by
the countries of their external co-authors.

detect runs the whole pipeline; classify and geoloc expose the two core
routines on a single text; results queries the run database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./affiliation-engine.yaml or ~/.config/affiliation-engine/affiliation-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostics level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "diagnostics format: console or json")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// Seeding viper with the defaults makes every key visible to
	// AutomaticEnv, e.g. AFFILIATION_ENGINE_EUROPEPMC_EMAIL.
	viper.SetConfigType("yaml")
	defaults, err := yaml.Marshal(types.DefaultPipelineConfig())
	if err == nil {
		viper.ReadConfig(bytes.NewReader(defaults))
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("affiliation-engine")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "affiliation-engine"))
		}
	}

	viper.SetEnvPrefix("AFFILIATION_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading %s: %v\n", cfgFile, err)
	}
}

// bindFlags binds command flags to configuration keys. Binding happens when
// the command runs because several commands share a key.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}

// loadConfig resolves the pipeline configuration from defaults, the config
// file, the environment, flags and secrets, validates it and configures
// diagnostics logging.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: decoding configuration: %v", types.ErrConfiguration, err)
	}
	secrets.Apply(&cfg, loadedSecrets)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
