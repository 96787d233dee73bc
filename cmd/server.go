package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itiky/blogsync/logging"
	"github.com/itiky/blogsync/service/server"
	"github.com/itiky/blogsync/storage/memory"
)

const (
	FlagAddr         = "addr"
	FlagAccounts     = "accounts"
	FlagHandlePeriod = "handle-period"
	FlagMockPosts    = "mock-posts"
)

// GetServerCmd returns development API server start command.
func GetServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the development blog API server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)

			// Parse inputs
			addr, err := cmd.Flags().GetString(FlagAddr)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagAddr)
			}
			if addr == "" {
				addr = cfg.ServerAddr
			}
			accountEntries, err := cmd.Flags().GetStringSlice(FlagAccounts)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagAccounts)
			}
			handleDur, err := cmd.Flags().GetDuration(FlagHandlePeriod)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagHandlePeriod)
			}
			filePath, err := cmd.Flags().GetString(FlagFilePath)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagFilePath)
			}
			mockPosts, err := cmd.Flags().GetInt(FlagMockPosts)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagMockPosts)
			}

			// Init service
			var store *memory.Store
			if filePath != "" {
				if store, err = memory.NewStoreFromFile(filePath); err != nil {
					log.Fatal().Err(err).Msg("store init")
				}
			} else {
				store = memory.NewStoreFromPosts(memory.NewMockPosts(mockPosts, time.Now()), time.Now().UTC())
			}

			accounts, err := server.ParseAccounts(accountEntries)
			if err != nil {
				log.Fatal().Err(err).Msg("accounts init")
			}
			for _, acc := range accounts.List() {
				log.Info().Str("username", acc.Username).Str("token", acc.Token).Msg("account")
			}

			gin.SetMode(gin.ReleaseMode)
			svc, err := server.NewBlogService(store, accounts, cfg.PageSize, handleDur, logging.For("api-server"))
			if err != nil {
				log.Fatal().Err(err).Msg("service init")
			}
			svc.Start()

			// Start server
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           svc.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("HTTP server: listen")
				}
			}()
			log.Info().Str("addr", addr).Int("pageSize", cfg.PageSize).Msg("HTTP server started")

			// Wait for signal
			signalCh := make(chan os.Signal, 1)
			signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
			<-signalCh

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("HTTP server: shutdown")
			}
			svc.Stop()
		},
	}
	cmd.Flags().String(FlagAddr, "", "(optional) listen address, defaults to the configured server_addr")
	cmd.Flags().StringSlice(FlagAccounts, []string{"mitch", "blake", "jessica", "sam", "lee"}, "(optional) accounts as username[:token], tokens are generated when omitted")
	cmd.Flags().Duration(FlagHandlePeriod, 10*time.Millisecond, "(optional) write operations handling period")
	cmd.Flags().String(FlagFilePath, "", "(optional) path to a generated posts file")
	cmd.Flags().Int(FlagMockPosts, 100, "(optional) number of mock posts when no file is given")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetServerCmd())
}
