package server

// Client is one line-oriented session with the fact service.
type Client interface {
	// ReadLine blocks until a non-empty line is received (without newline).
	ReadLine() (string, error)

	// WriteLine sends one message to the client.
	WriteLine(message string) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the client's address for logging.
	RemoteAddr() string
}
