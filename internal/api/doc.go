// Package api handles incoming HTTP requests, request validation, and
// response formatting. It translates the JSON surface of the gateway into
// calls on the orchestration service and maps the error taxonomy back to
// HTTP status codes and machine-readable error codes.
package api
