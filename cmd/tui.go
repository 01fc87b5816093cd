package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vankov/bgledger/internal/client"
	"github.com/vankov/bgledger/internal/server"
	"github.com/vankov/bgledger/internal/store"
	"github.com/vankov/bgledger/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverAddr := viper.GetString("server")

		if !cmd.Flags().Changed("server") {
			// Start an embedded server against the local database.
			log := newLogger()
			st, err := store.Open(viper.GetString("db"), log)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			srv := server.New(st, "127.0.0.1:8878", log)
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					log.Error().Err(err).Msg("embedded server")
				}
			}()
			serverAddr = "http://127.0.0.1:8878"

			c := client.New(serverAddr, viper.GetInt64("user"))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				if err := c.Ping(ctx); err == nil {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("timeout waiting for embedded server")
				}
				time.Sleep(50 * time.Millisecond)
			}
		}

		c := client.New(serverAddr, viper.GetInt64("user"))
		app := tui.NewApp(c, companyID())
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
