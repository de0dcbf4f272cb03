package proxy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carlosrabelo/tcpforward/internal/binding"
	"github.com/carlosrabelo/tcpforward/internal/config"
)

func fakeBindingSet(t *testing.T, froms ...string) *binding.BindingSet {
	t.Helper()
	bs := binding.New("test")
	for _, from := range froms {
		bs.AddRule(binding.BindingRule{
			From: from,
			To:   "127.0.0.1:1",
		})
	}
	return bs
}

func writeConfig(t *testing.T, contents string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.properties")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg := config.New(path)
	if err := cfg.Read(); err != nil {
		t.Fatalf("reading config: %v", err)
	}
	return cfg
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg := writeConfig(t, "")
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.pool.Close()

	if p.handlerType != "PROGRESSIVE" {
		t.Errorf("expected default PROGRESSIVE handler type, got %v", p.handlerType)
	}
	if p.shutdownMs != defaultShutdownGraceMs {
		t.Errorf("expected default shutdown grace, got %d", p.shutdownMs)
	}
}

func TestNewHonorsConfiguredValues(t *testing.T) {
	cfg := writeConfig(t, "thread_pool_size=5\nthread_handler_type=CAPTURE\nshutdown_grace_ms=100\n")
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.pool.Close()

	if p.handlerType != "CAPTURE" {
		t.Errorf("expected CAPTURE handler type, got %v", p.handlerType)
	}
	if p.shutdownMs != 100 {
		t.Errorf("expected 100ms shutdown grace, got %d", p.shutdownMs)
	}
}

func TestInitializeBindingsSkipsBadAddressKeepsGoodOnes(t *testing.T) {
	cfg := writeConfig(t, "")
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.pool.Close()

	bs := fakeBindingSet(t, "127.0.0.1:0", "this-is-not-an-address")
	errs := p.InitializeBindings(bs)
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
	}
	if len(p.listeners) != 1 {
		t.Fatalf("expected 1 successful listener, got %d", len(p.listeners))
	}
	if p.metrics.BindingsActive.Load() != 1 {
		t.Errorf("expected BindingsActive=1, got %d", p.metrics.BindingsActive.Load())
	}
}
