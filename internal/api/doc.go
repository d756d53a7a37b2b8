// Package api handles incoming HTTP requests for card editing sessions, print
// layout and export, and document import. Handlers decode and validate
// requests, call the application services and translate their errors into
// sanitized JSON responses.
package api
