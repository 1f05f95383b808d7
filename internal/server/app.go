// Package server assembles the codec, its supporting services and both
// transports, and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/config"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/httpapi"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/imagestore"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/metrics"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"

	gs "github.com/hautranuit/SCM-Multichain-sub001/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	metrics   *metrics.Metrics
	qrService *services.QRService
}

// NewApp builds every component from c. Logs go to out.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := newLogger(c, out)
	if err != nil {
		return nil, err
	}

	cd, err := newCodec(c, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	var publisher services.Publisher
	if c.PublishImages {
		store, err := imagestore.New(ctx, imagestore.Options{
			User:              c.S3RootUser,
			Password:          c.S3RootPassword,
			Bucket:            c.S3Bucket,
			Region:            c.S3Region,
			BaseEndpoint:      c.S3BaseEndpoint,
			PresignExpiration: c.PresignExpiration,
		})
		if err != nil {
			return nil, fmt.Errorf("image store init error: %w", err)
		}
		publisher = store
	}

	qs := services.NewQRService(cd, publisher, m, logger, c.DefaultTTL, c.ImageSizePx)

	return &App{config: c, logger: logger, metrics: m, qrService: qs}, nil
}

func newLogger(c *config.Config, out io.Writer) (logging.Logger, error) {
	if c.LogFormat == "text" {
		return logging.NewText(out, c.LogLevel)
	}
	return logging.NewJSON(out, c.LogLevel)
}

func newCodec(c *config.Config, logger logging.Logger) (*codec.Codec, error) {
	renderer, err := qrimage.NewRenderer(c.ErrorCorrection)
	if err != nil {
		return nil, err
	}
	opts := []codec.Option{
		codec.WithLogger(logger),
		codec.WithRenderer(renderer),
		codec.WithStrictContentAddress(c.StrictContentAddress),
	}

	if c.MasterSecretHex != "" {
		master, err := hex.DecodeString(c.MasterSecretHex)
		if err != nil {
			return nil, fmt.Errorf("%w: master secret is not hex", common.ErrInvalidKeyMaterial)
		}
		defer common.WipeByteArray(master)
		return codec.NewFromMasterSecret(master, opts...)
	}
	return codec.NewFromHex(c.AESKeyHex, c.HMACKeyHex, opts...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.qrService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(httpapi.NewHandler(app.qrService, app.logger), app.metrics.Handler())
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run starts both transports and blocks until ctx is cancelled, a signal
// arrives or one transport fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"grpc", app.config.EndpointAddrGRPC,
		"http", app.config.EndpointAddrHTTP,
		"publish_images", app.config.PublishImages,
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}
