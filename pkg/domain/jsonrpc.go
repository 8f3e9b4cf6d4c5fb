package domain

// MethodMessageSend is the only RPC method the agent serves.
const MethodMessageSend = "message/send"

// JSON-RPC 2.0 error codes used by the transport layer.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

type JSONRPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      any               `json:"id,omitempty"`
	Method  string            `json:"method"`
	Params  MessageSendParams `json:"params"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id,omitempty"`
	Result  *TaskResult   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

func NewRPCResult(id any, result TaskResult) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: &result}
}

func NewRPCError(id any, code int, message string, data any) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{Code: code, Message: message, Data: data}}
}
