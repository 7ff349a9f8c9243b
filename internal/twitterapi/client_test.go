package twitterapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccountInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/info/some_kol", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("ApiKey"))
		w.Write([]byte(`{"screen_name":"some_kol","name":"Some KOL","followers_count":42000}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	info, err := client.GetAccountInfo(context.Background(), "some_kol")
	require.NoError(t, err)
	assert.Equal(t, "some_kol", info.Handle)
	assert.Equal(t, 42000, info.FollowersCount)
}

func TestGetAccountScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score":87.5}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	score, err := client.GetAccountScore(context.Background(), "some_kol")
	require.NoError(t, err)
	assert.Equal(t, 87.5, score)
}

func TestGetJSONRetriesTransientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"score":10}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	score, err := client.GetAccountScore(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, 10.0, score)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSONDoesNotRetryNotFound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.GetAccountScore(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTweetIDFromLink(t *testing.T) {
	id, err := TweetIDFromLink("https://x.com/someone/status/1234567890")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", id)

	id, err = TweetIDFromLink("https://twitter.com/someone/status/42?s=20")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = TweetIDFromLink("https://x.com/someone")
	assert.Error(t, err)
}
