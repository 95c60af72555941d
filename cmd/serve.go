package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/rankboard/internal/config"
	"github.com/KaramelBytes/rankboard/internal/dashboard"
	"github.com/KaramelBytes/rankboard/internal/utils"
)

var (
	serveAddr  string
	serveData  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if c == nil {
			loaded, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			c = loaded
		}
		if cmd.Flags().Changed("addr") {
			c.Addr = serveAddr
		}
		if cmd.Flags().Changed("data") {
			c.DataPath = serveData
		}
		if c.Addr == "" {
			c.Addr = ":8501"
		}
		if c.DataPath != "" {
			found, err := utils.FindUp("", c.DataPath)
			if err != nil {
				warnf(cmd.ErrOrStderr(), "bundled dataset %s not readable: %v; the dashboard will ask for an upload", c.DataPath, err)
			} else {
				c.DataPath = found
			}
		}

		logger := newLogger(cmd.ErrOrStderr())
		srv, err := dashboard.NewServer(dashboard.Config{
			Addr:          c.Addr,
			DataPath:      c.DataPath,
			Watch:         serveWatch,
			SessionSecret: c.SessionSecret,
			CacheSize:     c.CacheSize,
			MaxUploadMB:   c.MaxUploadMB,
			Title:         c.Title,
			Caption:       c.Caption,
			Dataset:       c.DatasetOptions(),
			Board:         c.BoardOptions(),
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		okf(cmd.OutOrStdout(), "Dashboard listening on %s", c.Addr)
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8501)")
	serveCmd.Flags().StringVar(&serveData, "data", "", "bundled dataset path (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "reload the bundled dataset when the file changes")
}
