// Package host implements the daemon side of the wrn serial protocol: it
// opens a serial port (host/hal), drives the sync handshake and frame
// reassembly (sync.go), demultiplexes decoded frames into per-category
// FIFOs for other processes to consume (dispatch.go), runs a dedicated
// watchdog keep-alive bridge thread (watchdogbridge.go), and mirrors every
// frame into rotated, human-readable log files (logsink.go).
//
// The main goroutine owns the sync state machine and all serial reads; the
// watchdog bridge goroutine only ever writes, under a shared mutex, so the
// two never race on the wire.
package host
