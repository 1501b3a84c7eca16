package server

import (
	"fmt"
	"net/http"
	"time"

	"remote-relay/internal/config"
)

// NewHTTPServer wraps handler with the timeouts the relay wants; TLS
// termination is a front proxy's job, out of scope here.
func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func Run(cfg config.Config, handler http.Handler) error {
	return NewHTTPServer(cfg, handler).ListenAndServe()
}
