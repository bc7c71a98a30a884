// In file: internal/api/types.go

// Package api holds the public wire types of the gateway: the batch response
// envelope, per-item results and the error taxonomy shared by all handlers.
package api

// Envelope is the top-level response for every batch endpoint.
//
//	{"status": true, "message": "...", "data": [ItemResult, ...]}
type Envelope struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	Code    Code         `json:"code,omitempty"`
	Data    []ItemResult `json:"data"`
}

// ItemResult is one element of Envelope.Data. A successful item carries Data,
// a failed one carries Message and Code. Failed items never abort siblings.
type ItemResult struct {
	Status  bool   `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    Code   `json:"code,omitempty"`
}

// OK builds a successful item.
func OK(data any) ItemResult {
	return ItemResult{Status: true, Data: data}
}

// Failed builds a failed item from err, attaching its discriminated code.
func Failed(err error) ItemResult {
	return ItemResult{Status: false, Message: err.Error(), Code: CodeOf(err)}
}

// ErrorResponse is the body returned when a whole call fails.
func ErrorResponse(err error) Envelope {
	return Envelope{
		Status:  false,
		Message: "Error: " + err.Error(),
		Code:    CodeOf(err),
		Data:    []ItemResult{},
	}
}

// ToolCallRequest is the body accepted by the tool dispatcher. Every field
// other than functionName is passed to the tool as its arguments.
type ToolCallRequest struct {
	FunctionName string `json:"functionName"`
}

// Description is the OPTIONS self-description payload of an endpoint.
type Description struct {
	Description    string            `json:"description"`
	RequiredParams map[string]string `json:"requiredParams"`
	OptionalParams map[string]string `json:"optionalParams,omitempty"`
	DemoBody       []map[string]any  `json:"demoBody"`
	DemoResponse   any               `json:"demoResponse,omitempty"`
}
