package provider

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// JSONRPCRequest is a JSON-RPC 2.0 request envelope.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response envelope.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603

	// Provider-specific error codes.
	ErrCodeLanguageUnsupported = -32010
	ErrCodeFileNotIndexed      = -32011
)

// Symbol provider method names.
const (
	MethodDocumentSymbols = "symbols/document"
	MethodPrepareCalls    = "callHierarchy/prepare"
	MethodOutgoingCalls   = "callHierarchy/outgoing"
)

// DocumentSymbolsRequest is the wire request for symbols/document.
type DocumentSymbolsRequest struct {
	File string `json:"file"`
	Text string `json:"text,omitempty"`
}

// DocumentSymbolsResponse is the wire response for symbols/document. Flat
// providers leave nesting out and set container hints on each symbol.
type DocumentSymbolsResponse struct {
	Symbols []Symbol `json:"symbols"`
}

// PrepareCallsRequest is the wire request for callHierarchy/prepare.
type PrepareCallsRequest struct {
	File string   `json:"file"`
	Pos  Position `json:"pos"`
}

// PrepareCallsResponse is the wire response for callHierarchy/prepare.
// A nil Site means the position has no callable declaration.
type PrepareCallsResponse struct {
	Site *CallSite `json:"site,omitempty"`
}

// OutgoingCallsRequest is the wire request for callHierarchy/outgoing.
type OutgoingCallsRequest struct {
	Site CallSite `json:"site"`
}

// OutgoingCallsResponse is the wire response for callHierarchy/outgoing.
type OutgoingCallsResponse struct {
	Calls []OutgoingCall `json:"calls"`
}
