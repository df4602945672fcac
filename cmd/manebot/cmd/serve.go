package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manebot/manebot/internal/chat"
	"github.com/manebot/manebot/pkg/core/config"
	coregrpc "github.com/manebot/manebot/pkg/core/grpc"
	"github.com/manebot/manebot/pkg/core/logging"
)

var (
	serveConsole       bool
	serveWatch         bool
	serveCheckInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the bot",
	Long: `Runs the bot on every enabled platform.

The websocket platform and the gRPC health endpoint are enabled in the
configuration. The console platform reads commands from standard input
as the configured console user.

Examples:
  manebot serve --console
  manebot serve --config configs/config.toml --watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveConsole, "console", false, "read commands from standard input")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the config file when it changes")
	serveCmd.Flags().DurationVar(&serveCheckInterval, "health-interval", 15*time.Second, "interval between health checks")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, cfg, cleanup, err := openBot()
	if err != nil {
		printError("starting bot", err)
		return err
	}
	defer cleanup()

	logger := logging.New("serve")

	if serveConsole {
		b.AddPlatform(chat.NewConsole(os.Stdin, os.Stdout, cfg.Bot.ConsoleUser, cfg.Bot.ConsoleUser))
	}
	if cfg.Websocket.Enabled {
		b.AddPlatform(chat.NewWebsocket(chat.WebsocketOptions{
			Addr:        cfg.GetServiceAddress("websocket"),
			Path:        cfg.Websocket.Path,
			ReadTimeout: cfg.Websocket.ReadTimeout.Duration,
		}))
	}
	if !serveConsole && !cfg.Websocket.Enabled {
		return fmt.Errorf("no chat platform enabled: pass --console or enable [websocket]")
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, shutdown := context.WithCancel(gctx)
	defer shutdown()

	// the process ends with the bot, e.g. at the end of console input
	g.Go(func() error {
		defer shutdown()
		return b.Run(gctx)
	})

	if cfg.GRPC.Enabled {
		srvCfg := coregrpc.DefaultServerConfig()
		srvCfg.Host = cfg.GRPC.Host
		srvCfg.Port = cfg.GRPC.Port
		srvCfg.ServiceName = cfg.General.Name

		srv := coregrpc.NewServer(srvCfg)
		srv.Mirror(b.Health())
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}

	g.Go(func() error {
		b.Health().Run(gctx, serveCheckInterval)
		return nil
	})

	if serveWatch && cfgFile != "" {
		err := config.Watch(gctx, cfgFile, func(next *config.Config, err error) {
			if err != nil {
				logger.Warn("Ignoring invalid configuration", "path", cfgFile, "error", err)
				return
			}
			if err := b.Reload(gctx, next); err != nil {
				logger.Error("Failed to apply configuration", "error", err)
			}
		})
		if err != nil {
			shutdown()
			g.Wait()
			return err
		}
	}

	logger.Info("manebot running", "name", cfg.General.Name, "prefix", cfg.Bot.CommandPrefix)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		printError("serve", err)
		return err
	}
	logger.Info("manebot stopped")
	return nil
}
