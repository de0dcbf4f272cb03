package collector

import (
	"net"
	"testing"
	"time"
)

func pipePair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestReadAllPacketsFromStreamAccumulatesUntilEOF(t *testing.T) {
	senderRemote, senderLocal := pipePair(t)
	receiverRemote, _ := pipePair(t)

	c := New(receiverRemote, senderLocal)

	done := make(chan error, 1)
	go func() {
		done <- c.ReadAllPacketsFromStream()
	}()

	senderRemote.Write([]byte("hello "))
	senderRemote.Write([]byte("world"))
	senderRemote.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadAllPacketsFromStream")
	}

	if got := c.BufferToString(); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
	if c.PacketCount < 1 {
		t.Errorf("expected at least one packet, got %d", c.PacketCount)
	}
}

func TestWriteBufferToRemoteAndEmptyBuffer(t *testing.T) {
	receiverRemote, receiverLocal := pipePair(t)
	_, senderLocal := pipePair(t)

	c := New(receiverLocal, senderLocal)
	c.buffer = []byte("payload")

	written := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 7)
		n, _ := receiverRemote.Read(buf)
		written <- buf[:n]
	}()

	n, err := c.WriteBufferToRemote()
	if err != nil {
		t.Fatalf("WriteBufferToRemote failed: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7 bytes written, got %d", n)
	}

	select {
	case got := <-written:
		if string(got) != "payload" {
			t.Errorf("expected payload, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for receiver read")
	}

	c.EmptyBuffer()
	if len(c.GetBuffer()) != 0 {
		t.Error("expected buffer to be empty after EmptyBuffer")
	}
}
