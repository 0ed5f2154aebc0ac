package dto

import (
	"encoding/json"

	"insightslm-be/pkg/chat/normalizer"
)

// The /functions/v1 endpoints mirror the web client's edge-function
// contract: camelCase fields, {"error": ...} with status 500 on any
// failure including bad input.

type FnCreateNotebookRequest struct {
	Name   string `json:"name"`
	UserId string `json:"user_id"`
}

type FnCreateNotebookResponse struct {
	Success         bool            `json:"success"`
	Notebook        json.RawMessage `json:"notebook"`
	BackendResponse json.RawMessage `json:"backend_response,omitempty"`
}

type FnSendChatMessageRequest struct {
	NotebookId string `json:"notebookId"`
	Message    string `json:"message"`
}

type FnSendChatMessageResponse struct {
	Success bool `json:"success"`
	// Message is the persisted chat row, not the user's text. The client
	// reads the assistant reply and row id from it.
	Message  normalizer.Row  `json:"message"`
	Response json.RawMessage `json:"response,omitempty"`
}

type FnErrorResponse struct {
	Error string `json:"error"`
}
