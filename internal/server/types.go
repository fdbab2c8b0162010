package server

import (
	"github.com/reyhansunduk/efatura-mcp-server/internal/tools"
)

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ToolsResponse lists the callable tools
type ToolsResponse struct {
	Tools []tools.Tool `json:"tools"`
}

// CallResponse is the response for every tool invocation
type CallResponse struct {
	Tool      string      `json:"tool"`
	Mode      string      `json:"mode"`
	Text      string      `json:"text"`
	Data      interface{} `json:"data,omitempty"`
	IsError   bool        `json:"is_error"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

// CancelRequest is the body of the cancel endpoint
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
