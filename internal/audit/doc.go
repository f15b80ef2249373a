// Package audit relays session events to pluggable sinks.
//
// # Components
//
//   - [Sink] receives events (channel, JSON lines, fan-out, no-op).
//   - [Dispatcher] is a buffered asynchronous relay that either drops or
//     blocks when its buffer is full.
//   - [Event] is the structured record written to sinks.
//
// The session manager decides which events to emit; this package only
// buffers and delivers them. Events never carry tokens or passwords.
package audit
