package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient implements the Client interface against a symbol provider
// speaking JSON-RPC 2.0 over HTTP POST.
type HTTPClient struct {
	endpoint  string
	http      *http.Client
	requestID atomic.Int64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a symbol provider client for the given endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DocumentSymbols queries symbols/document for a file.
func (c *HTTPClient) DocumentSymbols(ctx context.Context, file string, text []byte) ([]Symbol, error) {
	req := DocumentSymbolsRequest{File: file, Text: string(text)}
	var resp DocumentSymbolsResponse
	if err := c.call(ctx, MethodDocumentSymbols, req, &resp); err != nil {
		return nil, mapRPCError(err)
	}
	return resp.Symbols, nil
}

// PrepareCallSite queries callHierarchy/prepare at a declaration position.
func (c *HTTPClient) PrepareCallSite(ctx context.Context, file string, pos Position) (*CallSite, error) {
	req := PrepareCallsRequest{File: file, Pos: pos}
	var resp PrepareCallsResponse
	if err := c.call(ctx, MethodPrepareCalls, req, &resp); err != nil {
		return nil, mapRPCError(err)
	}
	return resp.Site, nil
}

// OutgoingCalls queries callHierarchy/outgoing for a prepared site.
func (c *HTTPClient) OutgoingCalls(ctx context.Context, site *CallSite) ([]OutgoingCall, error) {
	req := OutgoingCallsRequest{Site: *site}
	var resp OutgoingCallsResponse
	if err := c.call(ctx, MethodOutgoingCalls, req, &resp); err != nil {
		return nil, mapRPCError(err)
	}
	return resp.Calls, nil
}

// mapRPCError translates "method not found" and "language unsupported" RPC
// errors into ErrUnsupported so callers can treat capability gaps uniformly.
func mapRPCError(err error) error {
	var rpcErr *RPCError
	if asRPCError(err, &rpcErr) {
		switch rpcErr.Code {
		case ErrCodeMethodNotFound, ErrCodeLanguageUnsupported:
			return fmt.Errorf("%w: %s", ErrUnsupported, rpcErr.Message)
		}
	}
	return err
}

func asRPCError(err error, target **RPCError) bool {
	for err != nil {
		if e, ok := err.(*RPCError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// nextID returns a monotonically increasing request ID for JSON-RPC calls.
func (c *HTTPClient) nextID() int64 {
	return c.requestID.Add(1)
}

// call performs a JSON-RPC 2.0 call over HTTP POST.
func (c *HTTPClient) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("provider: marshal params: %w", err)
	}

	rpcReq := JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextID(),
		Method:  method,
		Params:  paramsJSON,
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return fmt.Errorf("provider: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("provider: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("provider: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: %s: HTTP %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("provider: decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("provider: decode result: %w", err)
		}
	}

	return nil
}

// RPCError represents a JSON-RPC error returned by the symbol provider.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("provider: %s: rpc error %d: %s (data: %s)", e.Method, e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("provider: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}
