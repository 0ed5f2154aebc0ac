package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"insightslm-be/pkg/chat/normalizer"
	"insightslm-be/pkg/chat/syncstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFunctionsService struct {
	created    *syncstore.CreatedNotebook
	sent       *syncstore.SentMessage
	err        error
	gotName    string
	gotMessage string
}

func (s *stubFunctionsService) CreateNotebook(ctx context.Context, name, userID string) (*syncstore.CreatedNotebook, error) {
	s.gotName = name
	return s.created, s.err
}

func (s *stubFunctionsService) SendMessage(ctx context.Context, notebookID, text string) (*syncstore.SentMessage, error) {
	s.gotMessage = text
	return s.sent, s.err
}

func newFunctionsApp(svc *stubFunctionsService) *fiber.App {
	app := fiber.New()
	c := &functionsController{service: svc}
	g := app.Group("/functions/v1")
	g.Post("create-notebook", c.CreateNotebook)
	g.Post("send-chat-message", c.SendChatMessage)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestCreateNotebookSuccess(t *testing.T) {
	svc := &stubFunctionsService{
		created: &syncstore.CreatedNotebook{
			Notebook: syncstore.Notebook{ID: "nb-1", Name: "My Notebook"},
		},
	}
	app := newFunctionsApp(svc)

	status, body := postJSON(t, app, "/functions/v1/create-notebook",
		`{"name":"My Notebook","user_id":"u-1"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "My Notebook", svc.gotName)

	notebook, ok := body["notebook"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "nb-1", notebook["id"])
}

func TestCreateNotebookMissingFieldsAnswers500(t *testing.T) {
	app := newFunctionsApp(&stubFunctionsService{})

	status, body := postJSON(t, app, "/functions/v1/create-notebook", `{"name":""}`)

	// Bad input answers 500 with {"error": ...}; the web client depends
	// on this shape.
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotEmpty(t, body["error"])
	assert.NotContains(t, body, "success")
}

func TestCreateNotebookServiceFailureAnswers500(t *testing.T) {
	app := newFunctionsApp(&stubFunctionsService{err: errors.New("insert failed")})

	status, body := postJSON(t, app, "/functions/v1/create-notebook",
		`{"name":"N","user_id":"u-1"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "insert failed", body["error"])
}

func TestSendChatMessageSuccess(t *testing.T) {
	svc := &stubFunctionsService{
		sent: &syncstore.SentMessage{
			Row: normalizer.Row{
				ID:                "r1",
				UserMessage:       "hello",
				AssistantResponse: "hi there",
			},
			BackendResponse: json.RawMessage(`{"output":"hi there"}`),
		},
	}
	app := newFunctionsApp(svc)

	status, body := postJSON(t, app, "/functions/v1/send-chat-message",
		`{"notebookId":"nb-1","message":"hello"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "hello", svc.gotMessage)

	// message carries the persisted row as an object, not the user's text.
	row, ok := body["message"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "r1", row["id"])
	assert.Equal(t, "hello", row["user_message"])
	assert.Equal(t, "hi there", row["assistant_response"])

	response, ok := body["response"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hi there", response["output"])
}

func TestSendChatMessageMissingFieldsAnswers500(t *testing.T) {
	app := newFunctionsApp(&stubFunctionsService{})

	status, body := postJSON(t, app, "/functions/v1/send-chat-message", `{"message":"hello"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotEmpty(t, body["error"])
}

func TestSendChatMessageBackendFailureAnswers500(t *testing.T) {
	app := newFunctionsApp(&stubFunctionsService{err: errors.New("backend error (status 502): upstream down")})

	status, body := postJSON(t, app, "/functions/v1/send-chat-message",
		`{"notebookId":"nb-1","message":"hello"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "backend error")
}
