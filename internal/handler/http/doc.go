// Package http implements the document server's REST API.
//
// Routes live under /api. Every collection route requires a bearer token
// whose scope covers the collection in the path. Request tracing, access
// logging and response compression are handled here before requests reach
// the service layer.
package http
