// Package audit implements async event dispatching for authentication
// activity.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, rotating file, zap, no-op).
//   - [Dispatcher]: buffered async relay. It drops or blocks when full, stamps
//     missing timestamps and survives sink panics.
//   - [Event]: structured audit record with timestamp, type, identity, IP and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import authcore or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
