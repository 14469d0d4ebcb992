package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/orderlens/internal/output"
	"github.com/chrisdamba/orderlens/internal/server"
	"github.com/chrisdamba/orderlens/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve orders and statistics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		envelopePath, _ := cmd.Flags().GetString("envelope")
		publish, _ := cmd.Flags().GetBool("publish")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := session.NewStore(cfg.Location())
		res, err := loadEnvelope(envelopePath)
		if err != nil {
			log.Warn().Err(err).Msg("starting with sample data")
			res = offlineExtractor(cfg).Fallback(err)
		}
		store.Replace(res)

		ex, err := newExtractor(cfg, nil)
		if err != nil {
			return err
		}

		var pub *output.Publisher
		if publish {
			dest, err := output.NewDestination(ctx, cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			pub = output.NewPublisher(dest, cfg.KafkaTopicPrefix)
			defer pub.Close()
		}

		srv := server.New(cfg.AppEnv, store, ex, pub, cfg.Cookie)
		if err := srv.Run(ctx, cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("envelope", "", "Envelope file to serve until the first extraction")
	serveCmd.Flags().Bool("publish", false, "Hand every extraction to the configured output")
	bindFlags(serveCmd.Flags(), map[string]string{"server_addr": "addr"})
	rootCmd.AddCommand(serveCmd)
}
