// Package proxy implements the reverse-proxy engine: it turns a loaded
// BindingSet into a fleet of listeners, dials a fresh upstream connection
// per accepted client, and pumps bytes both directions using the
// configured forwarding strategy.
package proxy

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carlosrabelo/tcpforward/internal/binding"
	"github.com/carlosrabelo/tcpforward/internal/config"
	"github.com/carlosrabelo/tcpforward/internal/handler"
	"github.com/carlosrabelo/tcpforward/internal/metadata"
	"github.com/carlosrabelo/tcpforward/internal/metrics"
	"github.com/carlosrabelo/tcpforward/internal/proxysocks"
	"github.com/carlosrabelo/tcpforward/internal/workerpool"
	"github.com/carlosrabelo/tcpforward/pkg/logger"
)

const (
	defaultThreadPoolSize  = 50
	defaultHandlerType     = "PROGRESSIVE"
	defaultShutdownGraceMs = 5000
)

// ListenerBinding is bookkeeping for one active listener: its ordinal id
// and the rule it was built from. The net.Listener itself is not stored here:
// it is kept in the Proxy's listener list (so Start can close it) and handed
// to the acceptor goroutine's closure.
type ListenerBinding struct {
	ID   int
	Rule binding.BindingRule
}

// Proxy is the running engine: one acceptor job per listener, submitted to
// a fixed-size pool, each spawning two unbounded direction goroutines per
// accepted connection.
type Proxy struct {
	handlerType  handler.ThreadHandlerType
	shutdownMs   int
	pool         *workerpool.Pool
	dialer       *proxysocks.ProxyDialer
	metrics      *metrics.Collector
	listeners    []net.Listener
	bindings     []ListenerBinding
	wg           sync.WaitGroup
	mu           sync.Mutex
	closeOnce    sync.Once
	shuttingDown chan struct{}
}

// New builds a Proxy from Config, sizing its acceptor pool from
// thread_pool_size and selecting the forwarding strategy from
// thread_handler_type (defaults 50 and PROGRESSIVE).
func New(cfg *config.Config) (*Proxy, error) {
	poolSize := defaultThreadPoolSize
	if raw, err := cfg.Get("thread_pool_size"); err == nil {
		if n, perr := strconv.Atoi(raw); perr == nil && n > 0 {
			poolSize = n
		} else {
			logger.Warn("invalid thread_pool_size %q, defaulting to %d", raw, defaultThreadPoolSize)
		}
	}

	handlerType := handler.ParseThreadHandlerType(cfg.GetOrDefault("thread_handler_type", defaultHandlerType))

	shutdownMs := defaultShutdownGraceMs
	if raw, err := cfg.Get("shutdown_grace_ms"); err == nil {
		if n, perr := strconv.Atoi(raw); perr == nil && n >= 0 {
			shutdownMs = n
		}
	}

	socksCfg := &proxysocks.Config{
		Enabled:  cfg.GetOrDefault("socks_enabled", "false") == "true",
		Type:     cfg.GetOrDefault("socks_type", "socks5"),
		Host:     cfg.GetOrDefault("socks_host", ""),
		Username: cfg.GetOrDefault("socks_username", ""),
		Password: cfg.GetOrDefault("socks_password", ""),
	}
	if raw := cfg.GetOrDefault("socks_port", "0"); raw != "" {
		if n, perr := strconv.Atoi(raw); perr == nil {
			socksCfg.Port = n
		}
	}
	dialer, err := proxysocks.NewProxyDialer(socksCfg)
	if err != nil {
		return nil, err
	}

	return &Proxy{
		handlerType:  handlerType,
		shutdownMs:   shutdownMs,
		pool:         workerpool.New(poolSize, poolSize),
		dialer:       dialer,
		metrics:      metrics.NewCollector(),
		shuttingDown: make(chan struct{}),
	}, nil
}

// Metrics exposes the proxy's live counters, e.g. for a Prometheus exporter.
func (p *Proxy) Metrics() *metrics.Collector {
	return p.metrics
}

// InitializeBindings resolves and listens on every rule's From address,
// assigning ordinal ListenerBinding ids and submitting one acceptor job per
// listener to the pool. A bind failure is logged and that binding is
// skipped; other bindings still proceed.
func (p *Proxy) InitializeBindings(bs *binding.BindingSet) []error {
	var errs []error

	for _, rule := range bs.Bindings {
		ln, err := net.Listen("tcp", rule.From)
		if err != nil {
			logger.Error("could not bind %s for %q: %v", rule.From, rule.Name, err)
			errs = append(errs, err)
			continue
		}

		p.mu.Lock()
		id := len(p.bindings)
		p.bindings = append(p.bindings, ListenerBinding{ID: id, Rule: rule})
		p.listeners = append(p.listeners, ln)
		p.mu.Unlock()

		p.metrics.BindingsActive.Add(1)
		logger.Info("listening on %s -> %s (%q)", rule.From, rule.To, rule.Name)

		listener := ln
		toAddr := rule.To
		p.pool.Submit(func() { p.acceptLoop(listener, toAddr) })
	}

	return errs
}

func (p *Proxy) acceptLoop(ln net.Listener, to string) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-p.shuttingDown:
				return
			default:
			}
			logger.Error("accept error on %s: %v", ln.Addr(), err)
			p.metrics.AcceptErrors.Add(1)
			continue
		}

		upstream, err := p.dialer.Dial("tcp", to)
		if err != nil {
			logger.Error("could not dial upstream %s: %v", to, err)
			p.metrics.ConnectErrors.Add(1)
			conn.Close()
			continue
		}

		p.metrics.IncrementConnections()
		p.spawnDirectionWorkers(conn, upstream)
	}
}

// spawnDirectionWorkers runs the forward and backward handlers as two
// unbounded goroutines, deliberately outside the acceptor pool so that a
// connection's lifetime never consumes a pool slot. connDone tracks only
// this connection's pair, so the active-connections gauge drops as soon as
// both directions exit rather than waiting on every other connection too.
func (p *Proxy) spawnDirectionWorkers(client, upstream net.Conn) {
	md := metadata.New()

	var connDone sync.WaitGroup
	connDone.Add(2)
	go func() {
		connDone.Wait()
		p.metrics.DecrementConnections()
	}()

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		defer connDone.Done()
		defer upstream.Close()
		switch p.handlerType {
		case handler.Progressive:
			handler.ForwardProgressive(client, upstream, md, p.metrics)
		default:
			handler.ForwardCapture(client, upstream, md, p.metrics)
		}
	}()
	go func() {
		defer p.wg.Done()
		defer connDone.Done()
		defer client.Close()
		switch p.handlerType {
		case handler.Progressive:
			handler.BackwardProgressive(client, upstream, md, p.metrics)
		default:
			handler.BackwardCapture(client, upstream, md, p.metrics)
		}
	}()
}

// ServeHTTP runs a /healthz, /status, and Prometheus /metrics endpoint on
// addr until ctx is cancelled, pushing a fresh Collector snapshot into the
// registered Prometheus collectors on every /metrics scrape.
func (p *Proxy) ServeHTTP(ctx context.Context, addr string, pc *metrics.PrometheusCollectors) {
	syncer := metrics.NewSyncer(pc)
	var syncMu sync.Mutex
	syncSnapshot := func() metrics.Snapshot {
		syncMu.Lock()
		defer syncMu.Unlock()
		snap := p.metrics.Snapshot()
		syncer.Sync(snap)
		return snap
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		snap := syncSnapshot()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})
	promHandler := promhttp.Handler()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		syncSnapshot()
		promHandler.ServeHTTP(w, r)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("http: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("http server error: %v", err)
	}
}

// Start blocks until ctx is cancelled or a SIGINT/SIGTERM arrives, then
// closes every listener, waits up to the configured grace period for
// in-flight direction workers to finish, and returns.
func (p *Proxy) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	p.closeOnce.Do(func() { close(p.shuttingDown) })

	p.mu.Lock()
	for _, ln := range p.listeners {
		ln.Close()
	}
	p.mu.Unlock()

	p.pool.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Duration(p.shutdownMs) * time.Millisecond):
		logger.Warn("shutdown grace period elapsed with workers still running")
	}

	return nil
}
