// Package server implements the HTTP side of 'auto serve': a WebSocket
// tick feed, a Prometheus endpoint and a health check on a chi router.
//
// Every feed connection is an augmented host. Its subscribe field holds the
// shared tick stream and its unsubscribe field holds the connection, so
// subscription bookkeeping and connection teardown are done by package auto.
package server
