package server

import "errors"

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrMissingTopic         = errors.New("topic query parameter is required")
)
