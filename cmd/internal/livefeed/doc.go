// Package livefeed pushes attendance changes to connected dashboards
// over WebSocket. The feed is one-way: clients authenticate, subscribe
// and listen; all writes happen through the regular HTTP API.
package livefeed
