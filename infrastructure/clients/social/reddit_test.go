package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postqueue/domain/model"
)

func TestNormalizeSubreddit(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"golang", "golang"},
		{"r/golang", "golang"},
		{"/r/golang", "golang"},
		{"/r/golang/", "golang"},
		{"https://www.reddit.com/r/golang", "golang"},
		{"https://www.reddit.com/r/golang/comments/abc", "golang"},
		{"  golang  ", "golang"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSubreddit(tt.input), "input %q", tt.input)
	}
}

func testReddit(server *httptest.Server) *Reddit {
	rd := NewReddit()
	rd.apiBase = server.URL
	rd.authBase = server.URL
	return rd
}

func subredditDest(name string) *model.Destination {
	return &model.Destination{Type: "subreddit", ID: name, Name: "r/" + name}
}

func TestRedditPostContent_RequiresDestinationAndTitle(t *testing.T) {
	rd := NewReddit()
	ctx := context.Background()

	result := rd.PostContent(ctx, &model.PostContent{Text: "hi"}, "token", testCreds())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "subreddit destination")

	result = rd.PostContent(ctx, &model.PostContent{Text: "hi", Destination: subredditDest("golang")}, "token", testCreds())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "title")
}

func TestRedditPostContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/submit", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "self", r.PostForm.Get("kind"))
		assert.Equal(t, "golang", r.PostForm.Get("sr"))
		assert.Equal(t, "My Title", r.PostForm.Get("title"))
		assert.Equal(t, "body text", r.PostForm.Get("text"))
		assert.Equal(t, redditUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"json":{"errors":[],"data":{"url":"https://www.reddit.com/r/golang/comments/x1/my_title/"}}}`))
	}))
	defer server.Close()

	content := &model.PostContent{
		Text:             "body text",
		Destination:      subredditDest("golang"),
		AdditionalFields: map[string]string{"title": "My Title"},
	}
	result := testReddit(server).PostContent(context.Background(), content, "token", testCreds())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/x1/my_title/", result.PostURL)
}

func TestRedditPostContent_APIErrorsSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"json":{"errors":[["SUBREDDIT_NOTALLOWED","not allowed to post there","sr"]]}}`))
	}))
	defer server.Close()

	content := &model.PostContent{
		Text:             "body",
		Destination:      subredditDest("golang"),
		AdditionalFields: map[string]string{"title": "t"},
	}
	result := testReddit(server).PostContent(context.Background(), content, "token", testCreds())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "SUBREDDIT_NOTALLOWED")
	assert.Contains(t, result.Error, "not allowed to post there")
}

func TestRedditCreateDestinationFromInput_NoTokenIsMinimal(t *testing.T) {
	dest, err := NewReddit().CreateDestinationFromInput(context.Background(), "r/golang", "")
	require.NoError(t, err)
	assert.Equal(t, "subreddit", dest.Type)
	assert.Equal(t, "golang", dest.ID)
	assert.Equal(t, "r/golang", dest.Name)
	assert.Nil(t, dest.Metadata)
}

func TestRedditCreateDestinationFromInput_EnrichesFromAbout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/golang/about", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"title":"The Go Programming Language","subscribers":250000}}`))
	}))
	defer server.Close()

	dest, err := testReddit(server).CreateDestinationFromInput(context.Background(), "golang", "token")
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", dest.Description)
	assert.Equal(t, "250000", dest.Metadata["subscribers"])
}

func TestRedditCreateDestinationFromInput_EnrichmentFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest, err := testReddit(server).CreateDestinationFromInput(context.Background(), "privatesub", "token")
	require.NoError(t, err)
	assert.Equal(t, "privatesub", dest.ID)
	assert.Nil(t, dest.Metadata)
}

func TestRedditCreateDestinationFromInput_UnusableInput(t *testing.T) {
	_, err := NewReddit().CreateDestinationFromInput(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestRedditSearchDestinations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subreddits/search", r.URL.Path)
		assert.Equal(t, "go", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"display_name":"golang","title":"Go","subscribers":250000}}]}}`))
	}))
	defer server.Close()

	list, err := testReddit(server).SearchDestinations(context.Background(), "go", "token")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "golang", list[0].ID)
	assert.Equal(t, "r/golang", list[0].Name)
}

func TestRedditFetchRecentPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/me":
			_, _ = w.Write([]byte(`{"name":"gopher"}`))
		case "/user/gopher/submitted":
			_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"id":"x1","title":"Title only","selftext":"","permalink":"/r/golang/comments/x1/","created_utc":1769904000}}]}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	posts, err := testReddit(server).FetchRecentPosts(context.Background(), "token", testCreds())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	// Link posts without selftext fall back to the title as content.
	assert.Equal(t, "Title only", posts[0].Content)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/x1/", posts[0].URL)
	require.NotNil(t, posts[0].PostedAt)
}

func TestRedditCapabilities(t *testing.T) {
	rd := NewReddit()
	assert.True(t, rd.SupportsDestinations())
	assert.True(t, rd.RequiresDestination())
	assert.True(t, rd.SupportsFetchingRecentPosts())
	assert.Equal(t, []string{"title"}, rd.RequiredFields())
}
