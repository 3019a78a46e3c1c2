package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/llm"
)

func newTestServer(t *testing.T, token string, responses ...llm.MockResponse) (http.Handler, *llm.MockProvider) {
	t.Helper()
	mock := llm.NewMockProvider(responses...)
	svc := codegen.New(mock, codegen.DefaultConfig())
	srv, err := New(Config{
		Token:     token,
		Generator: svc,
		Evaluator: svc,
		Log:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return srv.Handler(), mock
}

func post(t *testing.T, h http.Handler, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, GenerateCodePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func artifact() llm.MockResponse {
	return llm.MockJSON(map[string]any{
		"code":     "export const limiter = () => {};",
		"language": "typescript",
		"blocks": []any{map[string]any{
			"id":          "block_1",
			"code":        "export const limiter = () => {};",
			"explanation": "Exports the limiter.",
			"question":    "What happens when the limit is reached?",
		}},
	})
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreflight(t *testing.T) {
	h, mock := newTestServer(t, "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, GenerateCodePath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "authorization")
	assert.Zero(t, mock.CallCount())
}

func TestGenerateAction(t *testing.T) {
	h, mock := newTestServer(t, "", artifact())

	rec := post(t, h, `{"action":"generate","featurePrompt":"rate limiter middleware"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		Content codegen.Artifact `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "typescript", body.Content.Language)
	require.Len(t, body.Content.Segments, 1)
	assert.Equal(t, "block_1", body.Content.Segments[0].ID)
	assert.Equal(t, 1, mock.CallCount())
}

func TestEvaluateAction(t *testing.T) {
	h, mock := newTestServer(t, "", llm.MockJSON(map[string]any{
		"score": 82, "feedback": "Solid.", "passed": false,
	}))

	rec := post(t, h, `{"action":"evaluate","code":"x","expectedExplanation":"limits calls","userExplanation":"it limits calls per window"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Content codegen.Evaluation `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 82, body.Content.Score)
	assert.True(t, body.Content.Passed)

	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "it limits calls per window")
}

func TestQuestionAction(t *testing.T) {
	h, _ := newTestServer(t, "", llm.MockResponse{Content: json.RawMessage(`"What resets the counter?"`)})

	rec := post(t, h, `{"action":"question","code":"x","explanation":"resets each minute"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "What resets the counter?")
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		resp   []llm.MockResponse
		status int
		msg    string
	}{
		{
			name:   "rate limited",
			body:   `{"action":"generate","featurePrompt":"x"}`,
			resp:   []llm.MockResponse{{Err: &llm.ErrRateLimit{Err: errors.New("429")}}},
			status: http.StatusTooManyRequests,
			msg:    msgRateLimited,
		},
		{
			name:   "payment required",
			body:   `{"action":"evaluate","code":"x"}`,
			resp:   []llm.MockResponse{{Err: &llm.ErrPaymentRequired{Err: errors.New("402")}}},
			status: http.StatusPaymentRequired,
			msg:    msgPaymentRequired,
		},
		{
			name:   "upstream failure",
			body:   `{"action":"generate","featurePrompt":"x"}`,
			resp:   []llm.MockResponse{{Err: &llm.ErrProviderUnavailable{Err: errors.New("boom")}}},
			status: http.StatusInternalServerError,
			msg:    "boom",
		},
		{
			name:   "invalid action",
			body:   `{"action":"deploy"}`,
			status: http.StatusBadRequest,
			msg:    "Invalid action",
		},
		{
			name:   "empty prompt",
			body:   `{"action":"generate","featurePrompt":"  "}`,
			status: http.StatusBadRequest,
			msg:    "empty",
		},
		{
			name:   "malformed body",
			body:   `{"action":`,
			status: http.StatusBadRequest,
			msg:    "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestServer(t, "", tt.resp...)
			rec := post(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, decodeError(t, rec), tt.msg)
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		h, mock := newTestServer(t, "secret", artifact())
		rec := post(t, h, `{"action":"generate","featurePrompt":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, mock.CallCount())
	})

	t.Run("wrong", func(t *testing.T) {
		h, mock := newTestServer(t, "secret", artifact())
		rec := post(t, h, `{"action":"generate","featurePrompt":"x"}`, "Authorization", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, mock.CallCount())
	})

	t.Run("valid", func(t *testing.T) {
		h, mock := newTestServer(t, "secret", artifact())
		rec := post(t, h, `{"action":"generate","featurePrompt":"x"}`, "Authorization", "Bearer secret")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, mock.CallCount())
	})
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, GenerateCodePath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	svc := codegen.New(llm.NewMockProvider(), codegen.DefaultConfig())
	srv, err := New(Config{Generator: svc, Evaluator: svc, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
