// Package handler implements the four directional forwarding strategies
// that move bytes between an accepted client connection and its dialed
// upstream: progressive (stream each packet through as it arrives) and
// capture (buffer the whole exchange, then forward it as one write).
package handler

import (
	"bufio"
	"net"

	"github.com/carlosrabelo/tcpforward/internal/collector"
	"github.com/carlosrabelo/tcpforward/internal/metadata"
	"github.com/carlosrabelo/tcpforward/internal/metrics"
	"github.com/carlosrabelo/tcpforward/pkg/logger"
)

// ThreadHandlerType selects which pair of forwarding strategies a binding
// uses for its connections.
type ThreadHandlerType string

const (
	Capture     ThreadHandlerType = "CAPTURE"
	Progressive ThreadHandlerType = "PROGRESSIVE"
)

// ParseThreadHandlerType maps a config string to a ThreadHandlerType,
// defaulting to Capture for anything unrecognized.
func ParseThreadHandlerType(s string) ThreadHandlerType {
	switch ThreadHandlerType(s) {
	case Capture, Progressive:
		return ThreadHandlerType(s)
	default:
		if s != "" {
			logger.Warn("unknown thread handler type %q, defaulting to CAPTURE", s)
		}
		return Capture
	}
}

// ForwardCapture reads everything the client sends until it closes its side,
// forwards it to the upstream as a single write, then tags the request start
// so the response can be timed against it.
func ForwardCapture(streamForward, senderForward net.Conn, md *metadata.RequestMetadata, mc *metrics.Collector) {
	pc := collector.New(senderForward, streamForward)
	if err := pc.ReadAllPacketsFromStream(); err != nil {
		logger.Debug("client closed connection: %v", err)
	}
	if n, err := pc.WriteBufferToRemote(); err != nil {
		logger.Debug("connection closed: %v", err)
	} else {
		mc.AddForwardBytes(n)
	}

	md.TagRequestStart()
	logger.Info("TRAFFIC LOG [EGRESS] [%s] [Packets: %d]", md.ID, pc.PacketCount)
	logger.Debug("REQUEST CONTENT [EGRESS]: %s", pc.BufferToString())
}

// ForwardProgressive streams each packet from the client straight through
// to the upstream as it arrives, tagging the request start on every packet.
func ForwardProgressive(streamForward, senderForward net.Conn, md *metadata.RequestMetadata, mc *metrics.Collector) {
	reader := bufio.NewReader(streamForward)
	for {
		buf, _ := reader.Peek(1)
		if len(buf) == 0 {
			logger.Debug("client closed connection")
			return
		}
		n := reader.Buffered()
		chunk := make([]byte, n)
		read, _ := reader.Read(chunk)
		chunk = chunk[:read]

		if _, err := senderForward.Write(chunk); err != nil {
			logger.Debug("failed to write to remote: %v", err)
			return
		}
		mc.AddForwardBytes(read)

		md.TagRequestStart()
		logger.Debug("REQUEST CONTENT [EGRESS]: %s", string(chunk))
		logger.Info("TRAFFIC LOG [EGRESS] [%s]", md.ID)
	}
}

// BackwardProgressive streams each packet from the upstream straight
// through to the client, counting response packets as they pass.
func BackwardProgressive(streamBackward, senderBackward net.Conn, md *metadata.RequestMetadata, mc *metrics.Collector) {
	reader := bufio.NewReader(senderBackward)
	for {
		buf, _ := reader.Peek(1)
		if len(buf) == 0 {
			md.TagResponseEnd()
			logger.Info("TRAFFIC LOG [INGRESS] [%s] [Packets: %d] [%v ms]", md.ID, md.PacketCount(), md.DurationMillis())
			logger.Debug("remote closed connection")
			return
		}
		n := reader.Buffered()
		chunk := make([]byte, n)
		read, _ := reader.Read(chunk)
		chunk = chunk[:read]

		if _, err := streamBackward.Write(chunk); err != nil {
			logger.Debug("client closed connection: %v", err)
			return
		}
		mc.AddBackwardBytes(read)
		md.IncrementPacketCount()
		logger.Debug("RESPONSE CONTENT [INGRESS]: %s", string(chunk))
	}
}

// BackwardCapture reads the upstream's whole response in one pass and
// forwards it to the client as a single write, then finalizes the request
// timing window.
func BackwardCapture(streamBackward, senderBackward net.Conn, md *metadata.RequestMetadata, mc *metrics.Collector) {
	pc := collector.New(streamBackward, senderBackward)
	if err := pc.ReadAllPacketsFromStream(); err != nil {
		logger.Debug("remote closed connection: %v", err)
	}
	if n, err := pc.WriteBufferToRemote(); err != nil {
		logger.Debug("connection closed: %v", err)
	} else {
		mc.AddBackwardBytes(n)
	}

	md.TagResponseEnd()
	logger.Info("TRAFFIC LOG [INGRESS] [%s] [Packets: %d] [%v ms]", md.ID, pc.PacketCount, md.DurationMillis())
	logger.Debug("RESPONSE CONTENT [INGRESS]: %s", pc.BufferToString())
}
