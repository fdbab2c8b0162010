package mcp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway/demo"
	"github.com/reyhansunduk/efatura-mcp-server/internal/mcp"
	"github.com/reyhansunduk/efatura-mcp-server/internal/tools"
)

var ctx = context.Background()

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func newServer(t *testing.T) *mcp.Server {
	t.Helper()
	reg := tools.NewRegistry(demo.New(), tools.WithMode(gateway.ModeDemo))
	s, err := mcp.NewServer(reg, mcp.WithServerInfo("efatura-mcp-server", "1.2.3"))
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, raw []byte) rpcResponse {
	t.Helper()
	require.NotNil(t, raw)
	var r rpcResponse
	require.NoError(t, json.Unmarshal(raw, &r), string(raw))
	assert.Equal(t, "2.0", r.JSONRPC)
	return r
}

// exchange sends each line through Handle and returns the responses
func exchange(t *testing.T, s *mcp.Server, lines ...string) []rpcResponse {
	t.Helper()
	var out []rpcResponse
	for _, line := range lines {
		if resp := s.Handle(ctx, []byte(line)); resp != nil {
			out = append(out, decode(t, resp))
		}
	}
	return out
}

type callResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StructuredContent map[string]interface{} `json:"structuredContent"`
	IsError           bool                   `json:"isError"`
}

func decodeCall(t *testing.T, r rpcResponse) callResult {
	t.Helper()
	require.Nil(t, r.Error)
	var res callResult
	require.NoError(t, json.Unmarshal(r.Result, &res))
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	return res
}

func toolCall(id int, name, args string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]json.RawMessage{"name": json.RawMessage(`"` + name + `"`), "arguments": json.RawMessage(args)},
	})
	return string(b)
}

func TestHandle_Handshake(t *testing.T) {
	responses := exchange(t, newServer(t),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	require.Len(t, responses, 2)

	assert.JSONEq(t, `1`, string(responses[0].ID))
	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
		Capabilities map[string]interface{} `json:"capabilities"`
		Instructions string                 `json:"instructions"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &init))
	assert.Equal(t, "2024-11-05", init.ProtocolVersion)
	assert.Equal(t, "efatura-mcp-server", init.ServerInfo.Name)
	assert.Equal(t, "1.2.3", init.ServerInfo.Version)
	assert.Contains(t, init.Capabilities, "tools")
	assert.Contains(t, init.Instructions, "demo mode")

	assert.JSONEq(t, `2`, string(responses[1].ID))
	assert.JSONEq(t, `{}`, string(responses[1].Result))
}

func TestHandle_UnknownProtocolVersion(t *testing.T) {
	responses := exchange(t, newServer(t),
		`{"jsonrpc":"2.0","id":"a","method":"initialize","params":{"protocolVersion":"1999-01-01","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
	)
	require.Len(t, responses, 1)
	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &init))
	assert.Equal(t, mcpgo.LATEST_PROTOCOL_VERSION, init.ProtocolVersion)
	assert.JSONEq(t, `"a"`, string(responses[0].ID))
}

func TestHandle_ToolsList(t *testing.T) {
	responses := exchange(t, newServer(t), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Len(t, responses, 1)

	var list struct {
		Tools []struct {
			Name        string                 `json:"name"`
			Description string                 `json:"description"`
			InputSchema map[string]interface{} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &list))

	var names []string
	schemas := map[string]map[string]interface{}{}
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
		schemas[tool.Name] = tool.InputSchema
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.InputSchema["type"])
	}
	assert.ElementsMatch(t, []string{
		tools.ListInvoices, tools.GetInvoiceDetail, tools.GetInvoiceXML, tools.CreateInvoice,
		tools.CancelInvoice, tools.SearchInvoices, tools.ValidateTaxNumber,
	}, names)
	assert.Equal(t, []interface{}{"invoice_id", "reason"}, schemas[tools.CancelInvoice]["required"])
}

func TestHandle_ToolsCall(t *testing.T) {
	responses := exchange(t, newServer(t),
		toolCall(1, tools.ListInvoices, `{"limit":2}`),
		toolCall(2, tools.ValidateTaxNumber, `{"tax_number":"10000000146"}`),
		toolCall(3, tools.GetInvoiceDetail, `{"invoice_id":"missing"}`),
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"list_invoices"}}`,
	)
	require.Len(t, responses, 4)

	list := decodeCall(t, responses[0])
	assert.False(t, list.IsError)
	assert.True(t, strings.HasPrefix(list.Content[0].Text, "Found 2 invoices:"))
	assert.Equal(t, float64(2), list.StructuredContent["count"])

	tax := decodeCall(t, responses[1])
	assert.False(t, tax.IsError)
	assert.Contains(t, tax.Content[0].Text, "✓ Valid Tax Number")
	assert.Equal(t, "TCKN", tax.StructuredContent["kind"])

	missing := decodeCall(t, responses[2])
	assert.True(t, missing.IsError)
	assert.Equal(t, "Invoice not found: missing", missing.Content[0].Text)
	assert.Equal(t, "not_found", missing.StructuredContent["kind"])

	noArgs := decodeCall(t, responses[3])
	assert.False(t, noArgs.IsError, noArgs.Content[0].Text)
	assert.Equal(t, float64(5), noArgs.StructuredContent["count"])
}

func TestHandle_CreateThenCancel(t *testing.T) {
	create := toolCall(1, tools.CreateInvoice, `{`+
		`"invoice_number":"MCP2024000001","issue_date":"2024-12-20",`+
		`"supplier_vkn":"4750128368","supplier_name":"Demo Teknoloji A.Ş.",`+
		`"customer_vkn":"8450335068","customer_name":"Müşteri Ltd.",`+
		`"items":[{"description":"Danışmanlık","quantity":2,"unit_price":150}],"total_amount":300}`)
	s := newServer(t)

	created := decodeCall(t, exchange(t, s, create)[0])
	require.False(t, created.IsError, created.Content[0].Text)
	assert.Contains(t, created.Content[0].Text, "✓ Invoice Created Successfully")

	cancel := toolCall(2, tools.CancelInvoice, `{"invoice_id":"MCP2024000001","reason":"hatalı"}`)
	responses := exchange(t, s, cancel, cancel)
	require.Len(t, responses, 2)

	cancelled := decodeCall(t, responses[0])
	assert.False(t, cancelled.IsError, cancelled.Content[0].Text)
	assert.Equal(t, "cancelled", cancelled.StructuredContent["status"])

	again := decodeCall(t, responses[1])
	assert.True(t, again.IsError)
	assert.Equal(t, "state", again.StructuredContent["kind"])
}

func TestHandle_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		id   string
		code int
	}{
		{"parse error", `{"jsonrpc":`, `null`, mcpgo.PARSE_ERROR},
		{"not json", `not json`, `null`, mcpgo.PARSE_ERROR},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, `1`, mcpgo.INVALID_REQUEST},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, `1`, mcpgo.METHOD_NOT_FOUND},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, `1`, mcpgo.METHOD_NOT_FOUND},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete_invoice"}}`, `1`, mcpgo.INVALID_PARAMS},
		{"missing tool name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, `1`, mcpgo.INVALID_PARAMS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := exchange(t, newServer(t), tt.line)
			require.Len(t, responses, 1)
			require.NotNil(t, responses[0].Error)
			assert.Equal(t, tt.code, responses[0].Error.Code)
			assert.JSONEq(t, tt.id, string(responses[0].ID))
			assert.Nil(t, responses[0].Result)
		})
	}
}

func TestHandle_UnknownToolNamesTool(t *testing.T) {
	responses := exchange(t, newServer(t), toolCall(9, "delete_invoice", `{}`))
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Contains(t, responses[0].Error.Message, "delete_invoice")
}

func TestHandle_NotificationMethodsWithIDGetAnswer(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"initialized", `{"jsonrpc":"2.0","id":7,"method":"notifications/initialized"}`},
		{"cancelled", `{"jsonrpc":"2.0","id":7,"method":"notifications/cancelled","params":{"requestId":4}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := newServer(t).Handle(ctx, []byte(tt.line))
			require.NotNil(t, raw)

			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &fields))
			_, hasResult := fields["result"]
			_, hasError := fields["error"]
			assert.True(t, hasResult != hasError, "exactly one of result and error: %s", raw)
			assert.JSONEq(t, `7`, string(fields["id"]))
		})
	}
}

func TestHandle_NotificationsGetNoReply(t *testing.T) {
	responses := exchange(t, newServer(t),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":4}}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_invoices"}}`,
	)
	assert.Empty(t, responses)
}

func TestServe_Stdio(t *testing.T) {
	lines := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		toolCall(3, tools.ListInvoices, `{"limit":1}`),
		toolCall(4, tools.GetInvoiceDetail, `{"invoice_id":"missing"}`),
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out bytes.Buffer
	err := newServer(t).Serve(cctx, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	require.NoError(t, err)

	byID := map[string]rpcResponse{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		r := decode(t, []byte(line))
		byID[string(r.ID)] = r
	}
	require.Len(t, byID, 5)

	for _, id := range []string{"1", "2", "5"} {
		assert.Nil(t, byID[id].Error, id)
		assert.NotNil(t, byID[id].Result, id)
	}
	assert.False(t, decodeCall(t, byID["3"]).IsError)
	assert.True(t, decodeCall(t, byID["4"]).IsError)
}

func TestServe_ContextCancelled(t *testing.T) {
	cctx, cancel := context.WithCancel(ctx)
	cancel()

	var out bytes.Buffer
	err := newServer(t).Serve(cctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	assert.NoError(t, err)
	assert.Empty(t, out.String())
}
