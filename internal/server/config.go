package server

import "github.com/raysh454/centinela/internal/logging"

type Config struct {
	// ListenAddr is the HTTP listen address for the session API.
	ListenAddr string

	// Logger defaults to a stdout logger named "Server".
	Logger logging.Logger
}
