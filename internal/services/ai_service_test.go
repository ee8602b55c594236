package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/localnerve/pagesdb/data"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/types"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a minimal OpenAI compatible API
type fakeProvider struct {
	reply    string
	deltas   []string
	models   []string
	fail     bool
	requests []openai.ChatCompletionRequest
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.fail {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}

	switch {
	case r.URL.Path == "/v1/models":
		list := openai.ModelsList{}
		for _, id := range f.models {
			list.Models = append(list.Models, openai.Model{ID: id, Object: "model", OwnedBy: "test"})
		}
		_ = json.NewEncoder(w).Encode(list)

	case r.URL.Path == "/v1/chat/completions":
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.requests = append(f.requests, req)

		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, d := range f.deltas {
				chunk := openai.ChatCompletionStreamResponse{
					Choices: []openai.ChatCompletionStreamChoice{{Delta: openai.ChatCompletionStreamChoiceDelta{Content: d}}},
				}
				raw, _ := json.Marshal(chunk)
				fmt.Fprintf(w, "data: %s\n\n", raw)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: f.reply}}},
		})

	default:
		http.NotFound(w, r)
	}
}

func newTestAIService(t *testing.T, provider *fakeProvider) *AIService {
	t.Helper()
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)
	return NewAIService(&config.Config{OpenAIAPIKey: "test-key", OpenAIBaseURL: srv.URL + "/v1", OpenAIModel: "gpt-4o"})
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```html\n<div></div>\n```", "<div></div>"},
		{"```\n<div></div>\n```", "<div></div>"},
		{"<div></div>", "<div></div>"},
		{"```html\n<div></div>", "<div></div>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in), tt.in)
	}
}

func TestGenerateCode(t *testing.T) {
	provider := &fakeProvider{reply: "```html\n<button>Hi</button>\n```"}
	ai := newTestAIService(t, provider)

	code, err := ai.GenerateCode(context.Background(), GenerateInput{Prompt: "a button", CurrentCode: "<div></div>"})
	require.NoError(t, err)
	assert.Equal(t, "<button>Hi</button>", code)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, data.GenerateSystemPrompt, req.Messages[0].Content)
	assert.Equal(t, "Current Code:\n<div></div>\n\nUser Request: a button", req.Messages[1].Content)
}

func TestGenerateCodeModelOverride(t *testing.T) {
	provider := &fakeProvider{reply: "<p></p>"}
	ai := newTestAIService(t, provider)

	_, err := ai.GenerateCode(context.Background(), GenerateInput{Prompt: "p", Model: "google/gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-1.5-pro", provider.requests[0].Model)
	assert.Equal(t, "User Request: p", provider.requests[0].Messages[1].Content)
}

func TestGenerateCodeUpstreamFailure(t *testing.T) {
	ai := newTestAIService(t, &fakeProvider{fail: true})

	_, err := ai.GenerateCode(context.Background(), GenerateInput{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUpstream))
}

func TestListModels(t *testing.T) {
	ai := newTestAIService(t, &fakeProvider{models: []string{"gpt-4o", "whisper-1", "anthropic/Claude-3", "dall-e-3", "gemini-pro"}})

	models := ai.ListModels(context.Background())
	ids := []string{}
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"gpt-4o", "anthropic/Claude-3", "gemini-pro"}, ids)
}

func TestListModelsFallback(t *testing.T) {
	ai := newTestAIService(t, &fakeProvider{fail: true})

	assert.Equal(t, FallbackModels, ai.ListModels(context.Background()))
}

func TestStreamCode(t *testing.T) {
	ai := newTestAIService(t, &fakeProvider{deltas: []string{"<div>", "hello", "</div>"}})

	var got strings.Builder
	err := ai.StreamCode(context.Background(), GenerateInput{Prompt: "p"}, func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<div>hello</div>", got.String())
}

func TestStreamCodeStopsOnCallbackError(t *testing.T) {
	ai := newTestAIService(t, &fakeProvider{deltas: []string{"a", "b", "c"}})
	stop := errors.New("client gone")

	calls := 0
	err := ai.StreamCode(context.Background(), GenerateInput{Prompt: "p"}, func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStreamCodeUpstreamFailure(t *testing.T) {
	ai := newTestAIService(t, &fakeProvider{fail: true})

	err := ai.StreamCode(context.Background(), GenerateInput{Prompt: "p"}, func(string) error { return nil })
	assert.True(t, errors.Is(err, types.ErrUpstream))
}
