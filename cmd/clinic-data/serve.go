package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/agarwalpriyanshu/Dental-CLinic/internal/http"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		router := httpapi.NewAPI(a.store, cfg.Attachment.MaxBytes, log)
		srv := service.NewServer(cfg.HTTP.Addr, router, log)

		// 监听系统信号
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.Start()
		}()

		select {
		case sig := <-sigChan:
			log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		case err := <-errChan:
			if err != nil {
				log.Error("Server error", zap.Error(err))
				return err
			}
		}

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := srv.Stop(stopCtx); err != nil {
			log.Error("Error stopping server", zap.Error(err))
		}
		log.Info("Service stopped")
		return nil
	},
}
