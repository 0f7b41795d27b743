package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
)

const (
	redditCharacterLimit = 40000
	redditUserAgent      = "postqueue/1.0"
)

// Reddit posts self-text submissions. Every post needs a subreddit
// destination and a "title" additional field.
type Reddit struct {
	apiBase  string
	authBase string
	http     *http.Client
}

func NewReddit() *Reddit {
	return &Reddit{
		apiBase:  "https://oauth.reddit.com",
		authBase: "https://www.reddit.com",
		http:     newHTTPClient(),
	}
}

func (r *Reddit) Platform() model.Platform { return model.PlatformReddit }

func (r *Reddit) oauthConfig(creds *model.ResolvedCredential) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       []string{"identity", "submit", "read", "history"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   r.authBase + "/api/v1/authorize",
			TokenURL:  r.authBase + "/api/v1/access_token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (r *Reddit) apiRequest(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.apiBase+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", redditUserAgent)
	return req, nil
}

type redditIdentity struct {
	Name string `json:"name"`
}

func (r *Reddit) me(ctx context.Context, accessToken string) (*redditIdentity, error) {
	req, err := r.apiRequest(ctx, http.MethodGet, "/api/v1/me", accessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit me returned status %d", resp.StatusCode)
	}
	var identity redditIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, err
	}
	if identity.Name == "" {
		return nil, fmt.Errorf("reddit me carried no username")
	}
	return &identity, nil
}

func (r *Reddit) ValidateCredentials(ctx context.Context, accessToken string, creds *model.ResolvedCredential) bool {
	_, err := r.me(ctx, accessToken)
	return err == nil
}

func (r *Reddit) PostContent(ctx context.Context, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) *model.PostResult {
	if content.Destination == nil || content.Destination.ID == "" {
		return failure(model.ResultCodePlatformError, "reddit posts require a subreddit destination")
	}
	title := strings.TrimSpace(content.AdditionalFields["title"])
	if title == "" {
		return failure(model.ResultCodePlatformError, "reddit posts require a title")
	}
	if content.Media != nil {
		return failure(model.ResultCodePlatformError, "reddit media posting is not supported")
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", "self")
	form.Set("sr", content.Destination.ID)
	form.Set("title", title)
	form.Set("text", content.Text)
	req, err := r.apiRequest(ctx, http.MethodPost, "/api/submit", accessToken, strings.NewReader(form.Encode()))
	if err != nil {
		return failure(model.ResultCodePlatformError, "reddit request build failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := r.http.Do(req)
	if err != nil {
		return failure(model.ResultCodePlatformError, "reddit request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("body", string(body)).Error("Reddit submit failed")
		return failure(model.ResultCodePlatformError, "reddit returned status %d: %s", resp.StatusCode, apiErrorDetail(body))
	}

	var submitted struct {
		JSON struct {
			Errors [][]interface{} `json:"errors"`
			Data   struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &submitted); err != nil {
		return failure(model.ResultCodePlatformError, "reddit returned an unreadable response")
	}
	if len(submitted.JSON.Errors) > 0 {
		return failure(model.ResultCodePlatformError, "reddit rejected the submission: %s", flattenRedditErrors(submitted.JSON.Errors))
	}
	if submitted.JSON.Data.URL == "" {
		return failure(model.ResultCodePlatformError, "reddit returned no post url")
	}
	return success(submitted.JSON.Data.URL)
}

func flattenRedditErrors(errors [][]interface{}) string {
	parts := make([]string, 0, len(errors))
	for _, entry := range errors {
		fields := make([]string, 0, len(entry))
		for _, field := range entry {
			if s, ok := field.(string); ok && s != "" {
				fields = append(fields, s)
			}
		}
		if len(fields) > 0 {
			parts = append(parts, strings.Join(fields, " "))
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateAppCredentials runs a client_credentials grant against the token
// endpoint. Reddit answers 401 for a bad pair even for script apps.
func (r *Reddit) ValidateAppCredentials(ctx context.Context, clientID, clientSecret string) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authBase+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(clientID, clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("reddit credential check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("reddit rejected the app credentials for client id %s", clientID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit credential check returned status %d", resp.StatusCode)
	}
	var granted struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&granted); err != nil || granted.AccessToken == "" {
		return fmt.Errorf("reddit credential check returned no token")
	}
	return nil
}

func (r *Reddit) StartAuthorization(ctx context.Context, userID string, creds *model.ResolvedCredential) (*model.AuthSession, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	authURL := r.oauthConfig(creds).AuthCodeURL(state, oauth2.SetAuthURLParam("duration", "permanent"))
	return &model.AuthSession{URL: authURL, State: state, Secret: state}, nil
}

func (r *Reddit) CompleteAuthorization(ctx context.Context, cb *model.AuthCallback, creds *model.ResolvedCredential) (*model.Integration, error) {
	if cb.State == "" || cb.State != cb.CookieSecret {
		return nil, fmt.Errorf("oauth state does not match the pending authorization")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.http)
	token, err := r.oauthConfig(creds).Exchange(ctx, cb.Code)
	if err != nil {
		return nil, fmt.Errorf("reddit code exchange: %w", err)
	}
	identity, err := r.me(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("reddit identity lookup: %w", err)
	}
	integration := &model.Integration{
		Platform:     model.PlatformReddit,
		ExternalID:   identity.Name,
		ExternalName: identity.Name,
		AccessToken:  token.AccessToken,
	}
	if token.RefreshToken != "" {
		integration.RefreshToken = &token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		integration.ExpiresAt = &expiry
	}
	return integration, nil
}

func (r *Reddit) SupportsDestinations() bool { return true }

func (r *Reddit) RequiresDestination() bool { return true }

func (r *Reddit) SupportsFetchingRecentPosts() bool { return true }

func (r *Reddit) RequiredFields() []string { return []string{"title"} }

func (r *Reddit) MaxCharacterLimit() int { return redditCharacterLimit }

// CreateDestinationFromInput accepts a subreddit name in any of the forms
// users paste: "golang", "r/golang", "/r/golang" or a full reddit.com URL.
// With a token available the destination is enriched from /about; without
// one, or when the lookup fails, a minimal destination is returned.
func (r *Reddit) CreateDestinationFromInput(ctx context.Context, rawInput, accessToken string) (*model.Destination, error) {
	name := normalizeSubreddit(rawInput)
	if name == "" {
		return nil, fmt.Errorf("could not derive a subreddit from %q", rawInput)
	}
	dest := &model.Destination{Type: "subreddit", ID: name, Name: "r/" + name}
	if accessToken == "" {
		return dest, nil
	}
	about, err := r.subredditAbout(ctx, name, accessToken)
	if err != nil {
		logger.GetLogger().WithField("subreddit", name).WithField("error", err).Warn("Subreddit enrichment failed; keeping minimal destination")
		return dest, nil
	}
	dest.Description = about.Title
	dest.Metadata = map[string]string{
		"title":       about.Title,
		"subscribers": strconv.FormatInt(about.Subscribers, 10),
	}
	return dest, nil
}

func normalizeSubreddit(rawInput string) string {
	input := strings.TrimSpace(rawInput)
	if input == "" {
		return ""
	}
	if strings.Contains(input, "reddit.com") {
		if parsed, err := url.Parse(input); err == nil {
			input = parsed.Path
		}
	}
	input = strings.Trim(input, "/")
	input = strings.TrimPrefix(input, "r/")
	if idx := strings.IndexByte(input, '/'); idx >= 0 {
		input = input[:idx]
	}
	return input
}

type subredditAbout struct {
	Title       string `json:"title"`
	Subscribers int64  `json:"subscribers"`
}

func (r *Reddit) subredditAbout(ctx context.Context, name, accessToken string) (*subredditAbout, error) {
	req, err := r.apiRequest(ctx, http.MethodGet, "/r/"+url.PathEscape(name)+"/about", accessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subreddit about returned status %d", resp.StatusCode)
	}
	var body struct {
		Data subredditAbout `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &body.Data, nil
}

type redditSearchOptions struct {
	Query string `url:"q"`
	Limit int    `url:"limit"`
}

func (r *Reddit) SearchDestinations(ctx context.Context, searchQuery, accessToken string) ([]*model.Destination, error) {
	params, err := query.Values(redditSearchOptions{Query: searchQuery, Limit: 10})
	if err != nil {
		return nil, err
	}
	req, err := r.apiRequest(ctx, http.MethodGet, "/subreddits/search?"+params.Encode(), accessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subreddit search returned status %d", resp.StatusCode)
	}
	var body struct {
		Data struct {
			Children []struct {
				Data struct {
					DisplayName string `json:"display_name"`
					Title       string `json:"title"`
					Subscribers int64  `json:"subscribers"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	destinations := make([]*model.Destination, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		destinations = append(destinations, &model.Destination{
			Type:        "subreddit",
			ID:          child.Data.DisplayName,
			Name:        "r/" + child.Data.DisplayName,
			Description: child.Data.Title,
			Metadata: map[string]string{
				"title":       child.Data.Title,
				"subscribers": strconv.FormatInt(child.Data.Subscribers, 10),
			},
		})
	}
	return destinations, nil
}

func (r *Reddit) FetchRecentPosts(ctx context.Context, accessToken string, creds *model.ResolvedCredential) ([]*model.RemotePost, error) {
	identity, err := r.me(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	req, err := r.apiRequest(ctx, http.MethodGet, "/user/"+url.PathEscape(identity.Name)+"/submitted?limit=25", accessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit submitted listing returned status %d", resp.StatusCode)
	}
	var body struct {
		Data struct {
			Children []struct {
				Data struct {
					ID         string  `json:"id"`
					Title      string  `json:"title"`
					SelfText   string  `json:"selftext"`
					Permalink  string  `json:"permalink"`
					CreatedUTC float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	posts := make([]*model.RemotePost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		content := child.Data.SelfText
		if content == "" {
			content = child.Data.Title
		}
		post := &model.RemotePost{
			ExternalID: child.Data.ID,
			Content:    content,
			URL:        "https://www.reddit.com" + child.Data.Permalink,
		}
		if child.Data.CreatedUTC > 0 {
			ts := unixTime(int64(child.Data.CreatedUTC))
			post.PostedAt = &ts
		}
		posts = append(posts, post)
	}
	return posts, nil
}
