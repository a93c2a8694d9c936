package postgres

// Error is a custom error type used for sentinel values
type Error string

// Error is the implementation of the error interface
func (e Error) Error() string { return string(e) }

const (
	// ClientError used to signal a client error, i.e. an invalid enum value or
	// missing required field
	ClientError = Error("client error, i.e. invalid value or missing required field")

	// ServerError used to signal a server error that the client cannot fix
	ServerError = Error("server error - unexpected database error")
)
