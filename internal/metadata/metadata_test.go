package metadata

import "testing"

func TestNewHasFreshID(t *testing.T) {
	a := New()
	b := New()
	if a.ID == b.ID {
		t.Error("expected distinct ids across instances")
	}
}

func TestDurationMillis(t *testing.T) {
	m := New()
	m.RequestStartMicros = 1_000_000
	m.ResponseEndMicros = 1_250_000

	if got := m.DurationMillis(); got != 250 {
		t.Errorf("expected 250ms, got %v", got)
	}
}

func TestIncrementPacketCount(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		m.IncrementPacketCount()
	}
	if got := m.PacketCount(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
