package authcore

import (
	"io"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/audit"
)

// AuditEvent is one audit record emitted by the Engine.
type AuditEvent = audit.Event

// AuditSink receives audit events from the async dispatcher.
type AuditSink = audit.Sink

// NoOpSink drops every event.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel, mostly for tests.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// MultiSink fans events out to several sinks.
type MultiSink = audit.MultiSink

// RotatingFileConfig sizes a rotating audit file.
type RotatingFileConfig = audit.RotatingFileConfig

func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

// NewZapSink logs events through log under the "audit" name.
func NewZapSink(log *zap.Logger) AuditSink { return audit.NewZapSink(log) }

// NewRotatingFileSink writes JSON lines to a lumberjack-rotated file. The
// closer must be closed after the Engine.
func NewRotatingFileSink(cfg RotatingFileConfig) (AuditSink, io.Closer) {
	return audit.NewRotatingFileSink(cfg)
}
