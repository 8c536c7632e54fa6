// Package channels connects chat platforms to the assistant.
package channels

import (
	"context"
	"net/http"
)

// Channel receives messages on routes of the gateway mux and answers them
// from a worker started with Start.
type Channel interface {
	Name() string
	RegisterRoutes(mux *http.ServeMux)
	Start(ctx context.Context) error
}
