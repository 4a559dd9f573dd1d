package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"toolgate/internal/dispatch"
	"toolgate/internal/domain"
	"toolgate/internal/registry"
)

// =============================================================================
// fixture
// =============================================================================

func newTestSession(t *testing.T, in string) (*Session, *bytes.Buffer) {
	t.Helper()

	reg := registry.New()
	handlers := registry.NewHandlerMap()

	echo := domain.ToolDefinition{
		Name:        "echo",
		Description: "Echo a value back",
		Params: []domain.ParameterSpec{
			{Name: "value", Kind: domain.KindString, Required: true},
		},
	}
	if err := reg.Register(echo); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := handlers.Bind("echo", domain.HandlerFunc(func(ctx context.Context, args domain.Args) (any, error) {
		return map[string]any{"echoed": args["value"]}, nil
	}))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	failing := domain.ToolDefinition{Name: "flaky", Description: "Always fails"}
	if err := reg.Register(failing); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err = handlers.Bind("flaky", domain.HandlerFunc(func(ctx context.Context, args domain.Args) (any, error) {
		return nil, errors.New("connection refused")
	}))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	d := dispatch.New(reg, handlers, zerolog.Nop())
	var out bytes.Buffer
	return NewSession(d, reg, strings.NewReader(in), &out, zerolog.Nop(), "toolgate", "test"), &out
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func runAndDecode(t *testing.T, in string) []rpcResponse {
	t.Helper()
	s, out := newTestSession(t, in)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var responses []rpcResponse
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var resp rpcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("Output line is not valid JSON: %v\nline: %s", err, scanner.Text())
		}
		responses = append(responses, resp)
	}
	return responses
}

// =============================================================================
// Session tests
// =============================================================================

func TestSession_Initialize_ShouldReportProtocolAndServerInfo(t *testing.T) {
	responses := runAndDecode(t, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`+"\n")
	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}

	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	if err := json.Unmarshal(responses[0].Result, &result); err != nil {
		t.Fatalf("Decode result: %v", err)
	}
	if result.ProtocolVersion != protocolVersion {
		t.Errorf("Expected protocol %s, got %s", protocolVersion, result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "toolgate" || result.ServerInfo.Version != "test" {
		t.Errorf("Wrong serverInfo: %+v", result.ServerInfo)
	}
}

func TestSession_ToolsList_ShouldReturnCatalogWithInputSchema(t *testing.T) {
	responses := runAndDecode(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`+"\n")
	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}

	var result struct {
		Tools []struct {
			Name        string          `json:"name"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(responses[0].Result, &result); err != nil {
		t.Fatalf("Decode result: %v", err)
	}
	if len(result.Tools) != 2 || result.Tools[0].Name != "echo" {
		t.Fatalf("Expected catalog [echo flaky], got %+v", result.Tools)
	}
	if len(result.Tools[0].InputSchema) == 0 {
		t.Error("Catalog entries must carry inputSchema")
	}
}

func TestSession_ToolsCall_ShouldWrapEnvelopeInResult(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"value":"hi"}}}` + "\n"
	responses := runAndDecode(t, in)
	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("Expected protocol success, got error: %+v", responses[0].Error)
	}

	var envelope domain.InvocationResult
	if err := json.Unmarshal(responses[0].Result, &envelope); err != nil {
		t.Fatalf("Decode envelope: %v", err)
	}
	if envelope.Status != domain.StatusSuccess {
		t.Errorf("Expected success envelope, got: %+v", envelope)
	}
}

func TestSession_ToolsCall_WhenHandlerFails_ShouldKeepSessionAlive(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"flaky","arguments":{}}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"value":"still here"}}}` + "\n"
	responses := runAndDecode(t, in)
	if len(responses) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(responses))
	}

	// First: protocol success carrying an error envelope.
	if responses[0].Error != nil {
		t.Fatalf("Tool failure must not be a protocol error: %+v", responses[0].Error)
	}
	var envelope domain.InvocationResult
	if err := json.Unmarshal(responses[0].Result, &envelope); err != nil {
		t.Fatalf("Decode envelope: %v", err)
	}
	if envelope.Status != domain.StatusError || envelope.Error.Kind != domain.FaultUpstreamFailure {
		t.Errorf("Expected UpstreamFailure envelope, got: %+v", envelope)
	}

	// Second call on the same session still succeeds.
	if err := json.Unmarshal(responses[1].Result, &envelope); err != nil {
		t.Fatalf("Decode second envelope: %v", err)
	}
	if envelope.Status != domain.StatusSuccess {
		t.Errorf("Session must stay usable after a tool failure, got: %+v", envelope)
	}
}

func TestSession_WhenLineMalformed_ShouldRespondParseErrorAndContinue(t *testing.T) {
	in := "this is not json\n" +
		`{"jsonrpc":"2.0","id":9,"method":"ping"}` + "\n"
	responses := runAndDecode(t, in)
	if len(responses) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(responses))
	}

	if responses[0].Error == nil || responses[0].Error.Code != codeParseError {
		t.Errorf("Expected parse error %d, got: %+v", codeParseError, responses[0].Error)
	}
	if string(responses[0].ID) != "null" {
		t.Errorf("Parse error response must carry null id, got %s", responses[0].ID)
	}
	if responses[1].Error != nil {
		t.Errorf("Session must continue after a malformed line: %+v", responses[1].Error)
	}
}

func TestSession_WhenMethodUnknown_ShouldReturnMethodNotFound(t *testing.T) {
	responses := runAndDecode(t, `{"jsonrpc":"2.0","id":4,"method":"resources/list"}`+"\n")
	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != codeMethodNotFound {
		t.Errorf("Expected method-not-found %d, got: %+v", codeMethodNotFound, responses[0].Error)
	}
}

func TestSession_WhenNotification_ShouldStaySilent(t *testing.T) {
	in := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":5,"method":"ping"}` + "\n"
	responses := runAndDecode(t, in)
	if len(responses) != 1 {
		t.Fatalf("Notifications get no response; expected 1, got %d", len(responses))
	}
	if string(responses[0].ID) != "5" {
		t.Errorf("Only the ping should be answered, got id %s", responses[0].ID)
	}
}

func TestSession_ShouldAnswerInRequestOrder(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"value":"x"}}}` + "\n" +
		`{"jsonrpc":"2.0","id":3,"method":"ping"}` + "\n"
	responses := runAndDecode(t, in)
	if len(responses) != 3 {
		t.Fatalf("Expected 3 responses, got %d", len(responses))
	}
	for i, want := range []string{"1", "2", "3"} {
		if string(responses[i].ID) != want {
			t.Errorf("Response %d out of order: id %s", i, responses[i].ID)
		}
	}
}
