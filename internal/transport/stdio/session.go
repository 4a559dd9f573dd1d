// Package stdio runs the long-lived single-caller protocol session:
// newline-delimited JSON-RPC 2.0 over the process's standard streams.
// Messages are handled strictly sequentially — each response is flushed
// before the next request is read — so responses always come back in
// request order.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"toolgate/internal/dispatch"
	"toolgate/internal/domain"
	"toolgate/internal/registry"
	"toolgate/internal/schema"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string      `json:"name"`
	Arguments domain.Args `json:"arguments"`
}

// Session is one stdio protocol session.
type Session struct {
	dispatcher *dispatch.Dispatcher
	reg        *registry.Registry
	in         io.Reader
	out        io.Writer
	log        zerolog.Logger
	name       string
	version    string
}

// NewSession wires a session over in/out. The logger must not write to out:
// stdout belongs to the wire.
func NewSession(d *dispatch.Dispatcher, reg *registry.Registry, in io.Reader, out io.Writer, log zerolog.Logger, name, version string) *Session {
	return &Session{
		dispatcher: d,
		reg:        reg,
		in:         in,
		out:        out,
		log:        log.With().Str("transport", "stdio").Logger(),
		name:       name,
		version:    version,
	}
}

// Run processes messages until the input stream closes or becomes unreadable.
// A malformed line gets a parse-error response and the session continues; the
// in-flight dispatch always completes and its response is flushed before the
// session ends.
func (s *Session) Run(ctx context.Context) error {
	reader := bufio.NewReader(s.in)
	writer := bufio.NewWriter(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if handleErr := s.handleLine(ctx, line, writer); handleErr != nil {
				return handleErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info().Msg("input stream closed, session ending")
				return nil
			}
			return err
		}
	}
}

func (s *Session) handleLine(ctx context.Context, line []byte, writer *bufio.Writer) error {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}

	var req request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		s.log.Warn().Err(err).Msg("malformed message")
		return s.write(writer, response{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
	}

	resp := s.handle(ctx, req)
	if resp == nil {
		// Notification: no response on the wire.
		return nil
	}
	return s.write(writer, *resp)
}

func (s *Session) handle(ctx context.Context, req request) *response {
	if req.ID == nil {
		// Notifications (e.g. notifications/initialized) are acknowledged
		// silently.
		return nil
	}
	switch req.Method {
	case "initialize":
		return s.result(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": s.name, "version": s.version},
		})
	case "ping":
		return s.result(req.ID, map[string]any{})
	case "tools/list":
		listing, err := schema.Catalog(s.reg.List())
		if err != nil {
			return s.fail(req.ID, codeInvalidRequest, "could not render tool catalog")
		}
		return s.result(req.ID, map[string]any{"tools": listing})
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return s.fail(req.ID, codeInvalidParams, "tools/call requires a tool name")
		}
		envelope := s.dispatcher.Dispatch(ctx, domain.InvocationRequest{
			Tool:      params.Name,
			Arguments: params.Arguments,
		})
		// Tool-level failures are still protocol-level successes: the
		// envelope carries the error, the RPC result is always populated.
		return s.result(req.ID, envelope)
	default:
		return s.fail(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Session) result(id json.RawMessage, result any) *response {
	return &response{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Session) fail(id json.RawMessage, code int, msg string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

func (s *Session) write(writer *bufio.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return writer.Flush()
}
