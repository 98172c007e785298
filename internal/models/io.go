// Package models provides the core data structures shared by the integrity layer and its handlers.
package models

// Response defines the structure for an HTTP response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}
