// tcpforward is a configurable TCP reverse proxy: it binds listener
// addresses from a binding document, dials a fresh upstream connection per
// accepted client, and forwards bytes both directions according to the
// configured strategy.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/carlosrabelo/tcpforward/internal/binding"
	"github.com/carlosrabelo/tcpforward/internal/config"
	"github.com/carlosrabelo/tcpforward/internal/metrics"
	"github.com/carlosrabelo/tcpforward/internal/proxy"
	"github.com/carlosrabelo/tcpforward/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.properties", "Path to the properties configuration file")
	bindingsPath := flag.String("bindings", "config/traffic.json", "Path to the binding document")
	httpListen := flag.String("http", "", "Optional address to serve /healthz, /status and /metrics on")
	flag.Parse()

	log := logger.Init()

	cfg := config.New(*configPath)
	if err := cfg.Read(); err != nil {
		log.Fatalf("could not load configuration: %v", err)
	}

	bs, err := binding.LoadFromFile("bootstrap", *bindingsPath)
	if err != nil {
		log.Fatalf("could not load bindings: %v", err)
	}
	bs.SetApplied(true)

	p, err := proxy.New(cfg)
	if err != nil {
		log.Fatalf("could not construct proxy: %v", err)
	}

	log.Infof("initializing proxy with %d binding(s)", len(bs.Bindings))
	if errs := p.InitializeBindings(bs); len(errs) > 0 {
		log.Warnf("%d binding(s) failed to initialize", len(errs))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *httpListen != "" {
		pc := metrics.InitPrometheus("tcpforward")
		go p.ServeHTTP(ctx, *httpListen, pc)
	}

	log.Info("starting main listener loop")
	if err := p.Start(ctx); err != nil {
		log.Fatalf("proxy exited with error: %v", err)
	}
	log.Info("shutdown complete")
}
