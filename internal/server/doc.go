// Package server runs the document server's HTTP transport, including
// signal handling and graceful shutdown.
package server
