package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/mosaicnetworks/rollcall/src/registry"
	"github.com/mosaicnetworks/rollcall/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serveListen   string
	serveInterval time.Duration
)

// NewServeCmd returns the command that follows the registry and serves the
// roster over HTTP
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Follow the registry and serve the roster over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			//Prepare sigCh to relay SIGINT and SIGTERM system calls
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			return serve(ctx, &_config.Rollcall, serveListen, serveInterval)
		},
	}
	AddServeFlags(cmd)
	return cmd
}

// AddServeFlags adds flags to the serve command
func AddServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&serveListen, "listen", "l", "127.0.0.1:8470", "Listen IP:Port for the HTTP API")
	cmd.Flags().DurationVar(&serveInterval, "interval", 5*time.Second, "Time between registry reads")
}

func serve(ctx context.Context, conf *config.Config, listen string, interval time.Duration) error {
	sortKey, err := conf.CanonicalSortKey()
	if err != nil {
		return err
	}

	st, err := openStore(conf)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := conf.Logger()

	tracker := registry.NewTracker(registry.NewJSONSource(conf.RegistryDir), st, sortKey, logger)
	if err := tracker.Restore(); err != nil {
		return err
	}

	srv := service.NewService(listen, tracker, st, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	refresh := func() {
		if _, _, err := tracker.Refresh(ctx); err != nil {
			logger.WithError(err).Error("Refreshing roster")
		}
	}
	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			refresh()
		case err := <-errCh:
			return err
		case <-ctx.Done():
			logger.WithFields(logrus.Fields{"listen": listen}).Debug("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		}
	}
}
