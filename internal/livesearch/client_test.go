package livesearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "검색 키워드: 스타벅스 혜택")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "스타벅스 9월 프로모션: 아메리카노 30% 할인"}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "pk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "스타벅스 요즘 혜택 뭐 있어?", []string{"스타벅스 혜택"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Content, "프로모션")
}

func TestClient_Search_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "pk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "rate limited", res.Err)
}

func TestClient_Search_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "pk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestSearchKeywords(t *testing.T) {
	got := SearchKeywords([]string{"스타벅스"}, []string{"카페"})
	assert.Equal(t, []string{"스타벅스 혜택", "카페 할인 혜택"}, got)

	assert.Empty(t, SearchKeywords(nil, nil))
}
