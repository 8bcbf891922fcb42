package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/internal/interfaces"
)

const shutdownTimeout = 5 * time.Second

// StatusReader exposes what /health reports.
type StatusReader interface {
	TrackedCount() int
}

// ConnectionCounter exposes the number of live websocket clients.
type ConnectionCounter interface {
	ConnectionCount() int
}

type ServiceOpts struct {
	Address string
	// WSHandler serves /ws, optionally also a ConnectionCounter.
	WSHandler http.Handler
	Bus       ports.EventBus
	Status    StatusReader
	// WebhookSecret enables HS256 bearer verification on the trade webhook.
	WebhookSecret  string
	EnableProfiler bool
}

func (o ServiceOpts) validate() error {
	if len(o.Address) <= 0 {
		return fmt.Errorf("missing listening address")
	}
	if o.WSHandler == nil {
		return fmt.Errorf("missing websocket handler")
	}
	if o.Bus == nil {
		return fmt.Errorf("missing event bus")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	return &service{
		opts: opts,
		server: &http.Server{
			Handler:           NewHandler(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface is listening on %s", s.opts.Address)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	log.Debug("stopped http interface")
}

// NewHandler returns the routes of the http interface.
func NewHandler(opts ServiceOpts) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", opts.WSHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler(opts))
	mux.Handle("/webhook/trades", newTradeWebhook(opts.Bus, opts.WebhookSecret))

	if opts.EnableProfiler {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
