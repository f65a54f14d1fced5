package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/xrinput/internal/console"
	"github.com/Alia5/xrinput/internal/log"
	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/server/api/handler"
	"github.com/Alia5/xrinput/internal/server/feed"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/tracker"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type Serve struct {
	ApiServerConfig   api.ServerConfig  `embed:"" prefix:"api."`
	FeedServerConfig  feed.ServerConfig `embed:"" prefix:"feed."`
	Tracker           TrackerConfig     `embed:"" prefix:"tracker."`
	Arm               ArmConfig         `embed:"" prefix:"arm."`
	ConnectionTimeout time.Duration     `help:"Time a client has to send its request line" default:"30s" env:"XRINPUT_CONNECTION_TIMEOUT"`
}

// Instance is a running server set.
type Instance struct {
	Tracker *tracker.Tracker
	API     *api.Server
	Feed    *feed.Server
}

// Close stops the feed and the API server.
func (i *Instance) Close(ctx context.Context) error {
	var err error
	if i.Feed != nil {
		err = i.Feed.Shutdown(ctx)
	}
	i.API.Close()
	return err
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, frames log.FrameLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gui := console.LaunchedFromExplorer()
	inst, err := s.Start(logger, frames)
	if err != nil {
		logger.Error("failed to start", "error", err)
		if gui {
			console.WaitForEnter(os.Stdout, os.Stdin, "Press Enter to exit...")
		}
		return err
	}
	if gui {
		go func() {
			time.Sleep(250 * time.Millisecond)
			console.HideWindow()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return inst.Close(shutdownCtx)
}

// Start builds the tracker and starts the API server and, when configured,
// the event feed.
func (s *Serve) Start(logger *slog.Logger, frames log.FrameLogger) (*Instance, error) {
	if s.ApiServerConfig.Addr == "" {
		return nil, errors.New("API server address must be set (default :3243)")
	}
	s.ApiServerConfig.ConnectionTimeout = s.ConnectionTimeout

	tcfg, err := s.Tracker.Build(s.Arm, logger)
	if err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}
	tr := tracker.New(tcfg)
	inst := &Instance{Tracker: tr}

	opts := session.Options{Frames: frames}
	if s.FeedServerConfig.Addr != "" {
		inst.Feed = feed.New(tr, s.FeedServerConfig, logger)
		if err := inst.Feed.Start(); err != nil {
			return nil, fmt.Errorf("feed: %w", err)
		}
		opts.Publisher = inst.Feed.Hub()
	}

	apiSrv := api.New(tr, s.ApiServerConfig.Addr, s.ApiServerConfig, logger)
	r := apiSrv.Router()
	r.Register("ping", handler.Ping(Version))
	r.Register("controller/list", handler.ControllerList(tr))
	r.Register("controller/{slot}", handler.ControllerInspect(tr))
	r.Register("mapping/list", handler.MappingList(tr.Table()))
	r.RegisterStream("session", handler.Session(apiSrv, Version, opts))

	if err := apiSrv.Start(); err != nil {
		if inst.Feed != nil {
			_ = inst.Feed.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("api: %w", err)
	}
	inst.API = apiSrv

	logger.Info("xrinput ready",
		"api", apiSrv.Addr(),
		"connectDelay", tcfg.ConnectDelay,
		"mappings", tcfg.Table.Len(),
		"auth", s.ApiServerConfig.Password != "",
	)
	return inst, nil
}
