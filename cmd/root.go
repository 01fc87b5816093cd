package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vankov/bgledger/internal/client"
)

var rootCmd = &cobra.Command{
	Use:   "bgledger",
	Short: "Double-entry accounting engine with Bulgarian VAT returns",
	Long: "A double-entry accounting engine backed by SQLite, with moving-average\n" +
		"inventory valuation and monthly VAT returns in the NRA exchange format.",
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8878", "Server address")
	rootCmd.PersistentFlags().String("db", "bgledger.db", "SQLite database path")
	rootCmd.PersistentFlags().Int64("user", 0, "Acting user id")
	rootCmd.PersistentFlags().Int64("company", 0, "Company id")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("company", rootCmd.PersistentFlags().Lookup("company"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("BGLEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("bgledger")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.config/bgledger")
	}
	viper.ReadInConfig()
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func apiClient() *client.Client {
	return client.New(viper.GetString("server"), viper.GetInt64("user"))
}

func companyID() int64 {
	return viper.GetInt64("company")
}

func actingUserID() int64 {
	return viper.GetInt64("user")
}

func Execute() error {
	return rootCmd.Execute()
}
