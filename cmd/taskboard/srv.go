package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"taskboard/internal/config"
	"taskboard/internal/server"
	"taskboard/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the taskboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(addr, st, server.Options{
				Identity:          cfg.Identity,
				LightweightPrefix: cfg.LightweightPrefix,
				ListLimit:         cfg.ListLimit,
			}, logger)
			return srv.ListenAndServe()
		},
	}
}
