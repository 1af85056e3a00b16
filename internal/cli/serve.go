package cli

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"insightsfetch/internal/config"
	"insightsfetch/internal/handler"
	"insightsfetch/internal/service"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *options, stderr io.Writer) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve exception queries over HTTP",
		Long: `serve exposes GET /exceptions?hours=&limit=&type=&message= and GET /ping.
The listen port defaults to $PORT, then 8080.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.newLogger(stderr)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if port == "" {
				port = cfg.Port
			}

			clientCfg := cfg.ClientConfig()
			clientCfg.Logger = logger
			client := service.NewInsightsClient(clientCfg)

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:    ":" + port,
				Handler: handler.NewRouter(handler.New(client, logger)),
			}
			return serve(cmd.Context(), srv, logger)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
