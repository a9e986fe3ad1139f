// Command legiond runs a Legion galaxy simulation server: a ticking
// world, a websocket session registry clients connect to, and an admin
// HTTP surface for health/metrics/debug. Grounded on the teacher's
// cmd/explorer (godotenv + viper bootstrap, gorilla/mux admin routes) and
// cmd/synnergy (cobra command tree).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"legion/pkg/config"
)

var log = logrus.New()

func main() {
	_ = godotenv.Load(".env")
	viper.AutomaticEnv()
	log.SetFormatter(&logrus.JSONFormatter{})

	root := &cobra.Command{Use: "legiond"}
	root.AddCommand(serveCmd())
	root.AddCommand(saveCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) config.Config {
	if path == "" {
		return config.Defaults()
	}
	viper.SetConfigFile(path)
	cfg := config.Defaults()
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Warnf("could not read config %s, using defaults", path)
		return cfg
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		log.WithError(err).Warn("could not unmarshal config, using defaults")
		return config.Defaults()
	}
	return cfg
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print legiond's version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Version)
		},
	}
}


