package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vankov/bgledger/internal/server"
	"github.com/vankov/bgledger/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		st, err := store.Open(viper.GetString("db"), log)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := server.New(st, serveAddr, log)
		log.Info().Str("addr", serveAddr).Msg("listening")
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8878", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
