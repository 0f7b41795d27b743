package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postqueue/domain/model"
)

func TestSplitToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid pair", "abc:def", false},
		{"no separator", "abcdef", true},
		{"empty secret", "abc:", true},
		{"empty token", ":def", true},
		{"empty string", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, secret, err := splitToken(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.Equal(t, "abc", token)
			assert.Equal(t, "def", secret)
		})
	}
}

func testTwitter(server *httptest.Server) *Twitter {
	tw := NewTwitter()
	tw.apiBase = server.URL
	tw.uploadBase = server.URL
	tw.authBase = server.URL
	return tw
}

func TestTwitterPostContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/tweets", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Authorization"), "OAuth")
		var payload struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hello world", payload.Text)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1234567890"}}`))
	}))
	defer server.Close()

	result := testTwitter(server).PostContent(context.Background(), &model.PostContent{Text: "hello world"}, "tok:sec", testCreds())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "https://x.com/i/web/status/1234567890", result.PostURL)
}

func TestTwitterPostContent_PlatformErrorCarriesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":"Too Many Requests"}`))
	}))
	defer server.Close()

	result := testTwitter(server).PostContent(context.Background(), &model.PostContent{Text: "hi"}, "tok:sec", testCreds())
	assert.False(t, result.Success)
	assert.Equal(t, model.ResultCodePlatformError, result.Code)
	assert.Contains(t, result.Error, "429")
	assert.Contains(t, result.Error, "Too Many Requests")
}

func TestTwitterPostContent_MalformedTokenFailsBeforeNetwork(t *testing.T) {
	// Any network call would panic the test server counter below.
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	result := testTwitter(server).PostContent(context.Background(), &model.PostContent{Text: "hi"}, "malformed", testCreds())
	assert.False(t, result.Success)
	assert.Equal(t, model.ResultCodeCredentialsInvalid, result.Code)
	assert.Equal(t, 0, calls)
}

func TestTwitterValidateCredentials(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/users/me", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":{"id":"99","username":"gopher"}}`))
	}))
	defer server.Close()
	tw := testTwitter(server)

	assert.True(t, tw.ValidateCredentials(context.Background(), "tok:sec", testCreds()))
	status = http.StatusUnauthorized
	assert.False(t, tw.ValidateCredentials(context.Background(), "tok:sec", testCreds()))
	assert.False(t, tw.ValidateCredentials(context.Background(), "malformed", testCreds()))
}

func TestTwitterPostContent_UploadsMediaFirst(t *testing.T) {
	var uploadSeen bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1.1/media/upload.json":
			uploadSeen = true
			_, _ = w.Write([]byte(`{"media_id_string":"555"}`))
		case "/2/tweets":
			var payload struct {
				Media struct {
					MediaIDs []string `json:"media_ids"`
				} `json:"media"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, []string{"555"}, payload.Media.MediaIDs)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"777"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	content := &model.PostContent{Text: "with media", Media: &model.Media{Data: []byte{1, 2}, MimeType: "image/png"}}
	result := testTwitter(server).PostContent(context.Background(), content, "tok:sec", testCreds())
	require.True(t, result.Success, result.Error)
	assert.True(t, uploadSeen)
}

func TestTwitterFetchRecentPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/me":
			_, _ = w.Write([]byte(`{"data":{"id":"99","username":"gopher"}}`))
		case "/2/users/99/tweets":
			assert.Equal(t, "50", r.URL.Query().Get("max_results"))
			assert.Equal(t, "created_at", r.URL.Query().Get("tweet.fields"))
			_, _ = w.Write([]byte(`{"data":[{"id":"1","text":"first","created_at":"2026-02-01T10:00:00Z"}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	posts, err := testTwitter(server).FetchRecentPosts(context.Background(), "tok:sec", testCreds())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "first", posts[0].Content)
	assert.Equal(t, "https://x.com/i/web/status/1", posts[0].URL)
	require.NotNil(t, posts[0].PostedAt)
}

func TestTwitterCapabilities(t *testing.T) {
	tw := NewTwitter()
	assert.Equal(t, model.PlatformTwitter, tw.Platform())
	assert.False(t, tw.SupportsDestinations())
	assert.False(t, tw.RequiresDestination())
	assert.True(t, tw.SupportsFetchingRecentPosts())
	assert.Equal(t, 280, tw.MaxCharacterLimit())
	assert.Empty(t, tw.RequiredFields())
}
