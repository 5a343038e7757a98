package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jask/jaskprofile/internal/server"
	"github.com/jask/jaskprofile/internal/service"
)

var (
	serveAddr  string
	purgeEvery time.Duration
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the account API backed by the local sqlite store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		stderrLogging(cfg)
		if !serveDebug {
			gin.SetMode(gin.ReleaseMode)
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		maint := &service.MaintenanceService{DB: st.db}
		go maint.Run(ctx, purgeEvery)

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		if cfg.Server.APIKey == "" {
			slog.Warn("server.api_key is empty; apikey header not enforced")
		}
		return server.New(st.auth, st.profiles, cfg.Server.APIKey).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().DurationVar(&purgeEvery, "purge-every", time.Hour, "interval between expired session purges")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "gin debug mode")
	rootCmd.AddCommand(serveCmd)
}
