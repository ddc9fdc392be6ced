package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"yashubustudio/ailian/detector"
	"yashubustudio/ailian/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr string
}

var serveOpts serveOptions

func runServe(cmd *cobra.Command, _ []string) error {
	addr := strings.TrimSpace(serveOpts.addr)
	if addr == "" {
		addr = appConfig.Server.Addr
	}

	svc, err := detector.OpenService(appConfig, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.Calibrator.Watch {
		go func() {
			if err := svc.Store().Watch(ctx); err != nil {
				logger.Warn("Calibrator watch stopped", "error", err)
			}
		}()
	}

	if !strings.EqualFold(appConfig.LogLevel, "DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.Run(ctx, addr, server.NewRouter(svc, logger), logger)
}
