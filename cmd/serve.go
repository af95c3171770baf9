package cmd

import (
	"github.com/spf13/cobra"

	"github.com/plazareviews/revscope/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve period statistics and dashboard data from the database as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := boundaryAndSettings()
		if err != nil {
			return err
		}
		rolling, err := s.Rolling()
		if err != nil {
			return err
		}
		db, err := openDB(s.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		listenAddr, _ := cmd.Flags().GetString("listen")
		user, _ := cmd.Flags().GetString("user")
		pass, _ := cmd.Flags().GetString("pass")

		return server.New(db, user, pass, b, rolling).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("user", "", "Basic auth username (empty disables auth)")
	serveCmd.Flags().String("pass", "", "Basic auth password")
}
