package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/google/go-querystring/query"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
)

const twitterCharacterLimit = 280

// Twitter posts via the v2 API with OAuth1 user-context signing. Media
// still goes through the v1.1 upload endpoint. The stored access token is
// the OAuth1 pair encoded as "token:secret".
type Twitter struct {
	apiBase    string
	uploadBase string
	authBase   string
	http       *http.Client
}

func NewTwitter() *Twitter {
	return &Twitter{
		apiBase:    "https://api.twitter.com",
		uploadBase: "https://upload.twitter.com",
		authBase:   "https://api.twitter.com",
		http:       newHTTPClient(),
	}
}

func (t *Twitter) Platform() model.Platform { return model.PlatformTwitter }

func (t *Twitter) oauthConfig(creds *model.ResolvedCredential) *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    creds.ClientID,
		ConsumerSecret: creds.ClientSecret,
		CallbackURL:    creds.RedirectURI,
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: t.authBase + "/oauth/request_token",
			AuthorizeURL:    t.authBase + "/oauth/authorize",
			AccessTokenURL:  t.authBase + "/oauth/access_token",
		},
	}
}

// splitToken decodes the "token:secret" pair. A token without the
// separator is rejected before any network call is made.
func splitToken(accessToken string) (string, string, error) {
	token, secret, ok := strings.Cut(accessToken, ":")
	if !ok || token == "" || secret == "" {
		return "", "", fmt.Errorf("twitter access token is not a token:secret pair")
	}
	return token, secret, nil
}

func (t *Twitter) signedClient(ctx context.Context, creds *model.ResolvedCredential, token, secret string) *http.Client {
	ctx = context.WithValue(ctx, oauth1.HTTPClient, t.http)
	return t.oauthConfig(creds).Client(ctx, oauth1.NewToken(token, secret))
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (t *Twitter) usersMe(ctx context.Context, client *http.Client) (*twitterUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.apiBase+"/2/users/me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter users/me returned status %d", resp.StatusCode)
	}
	var body struct {
		Data twitterUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &body.Data, nil
}

func (t *Twitter) ValidateCredentials(ctx context.Context, accessToken string, creds *model.ResolvedCredential) bool {
	token, secret, err := splitToken(accessToken)
	if err != nil {
		return false
	}
	_, err = t.usersMe(ctx, t.signedClient(ctx, creds, token, secret))
	return err == nil
}

func (t *Twitter) PostContent(ctx context.Context, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) *model.PostResult {
	token, secret, err := splitToken(accessToken)
	if err != nil {
		return failure(model.ResultCodeCredentialsInvalid, "%v; re-authorize the account", err)
	}
	client := t.signedClient(ctx, creds, token, secret)

	payload := map[string]interface{}{"text": content.Text}
	if content.Media != nil {
		mediaID, err := t.uploadMedia(ctx, client, content.Media)
		if err != nil {
			return failure(model.ResultCodePlatformError, "twitter media upload failed: %v", err)
		}
		payload["media"] = map[string]interface{}{"media_ids": []string{mediaID}}
	}

	raw, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiBase+"/2/tweets", bytes.NewReader(raw))
	if err != nil {
		return failure(model.ResultCodePlatformError, "twitter request build failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return failure(model.ResultCodePlatformError, "twitter request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("body", string(body)).Error("Twitter tweet creation failed")
		return failure(model.ResultCodePlatformError, "twitter returned status %d: %s", resp.StatusCode, apiErrorDetail(body))
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.Data.ID == "" {
		return failure(model.ResultCodePlatformError, "twitter returned an unreadable response")
	}
	return success("https://x.com/i/web/status/" + created.Data.ID)
}

func (t *Twitter) uploadMedia(ctx context.Context, client *http.Client, media *model.Media) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(media.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uploadBase+"/1.1/media/upload.json", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, apiErrorDetail(body))
	}
	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", err
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("upload response carried no media id")
	}
	return uploaded.MediaIDString, nil
}

func (t *Twitter) ValidateAppCredentials(ctx context.Context, clientID, clientSecret string) error {
	config := &oauth1.Config{
		ConsumerKey:    clientID,
		ConsumerSecret: clientSecret,
		CallbackURL:    "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: t.authBase + "/oauth/request_token",
			AuthorizeURL:    t.authBase + "/oauth/authorize",
			AccessTokenURL:  t.authBase + "/oauth/access_token",
		},
	}
	if _, _, err := config.RequestToken(); err != nil {
		return fmt.Errorf("twitter rejected the app credentials for client id %s", clientID)
	}
	return nil
}

// twitterHandshake is the request-token pair stashed in the flow cookie
// between StartAuthorization and CompleteAuthorization.
type twitterHandshake struct {
	RequestToken  string `json:"request_token"`
	RequestSecret string `json:"request_secret"`
}

func (t *Twitter) StartAuthorization(ctx context.Context, userID string, creds *model.ResolvedCredential) (*model.AuthSession, error) {
	config := t.oauthConfig(creds)
	requestToken, requestSecret, err := config.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("twitter request token: %w", err)
	}
	authURL, err := config.AuthorizationURL(requestToken)
	if err != nil {
		return nil, err
	}
	secret, err := json.Marshal(twitterHandshake{RequestToken: requestToken, RequestSecret: requestSecret})
	if err != nil {
		return nil, err
	}
	return &model.AuthSession{URL: authURL.String(), State: requestToken, Secret: string(secret)}, nil
}

func (t *Twitter) CompleteAuthorization(ctx context.Context, cb *model.AuthCallback, creds *model.ResolvedCredential) (*model.Integration, error) {
	var handshake twitterHandshake
	if err := json.Unmarshal([]byte(cb.CookieSecret), &handshake); err != nil {
		return nil, fmt.Errorf("authorization session expired or tampered with")
	}
	if cb.OAuthToken == "" || cb.OAuthToken != handshake.RequestToken {
		return nil, fmt.Errorf("oauth token does not match the pending authorization")
	}
	config := t.oauthConfig(creds)
	accessToken, accessSecret, err := config.AccessToken(handshake.RequestToken, handshake.RequestSecret, cb.OAuthVerifier)
	if err != nil {
		return nil, fmt.Errorf("twitter access token exchange: %w", err)
	}
	me, err := t.usersMe(ctx, t.signedClient(ctx, creds, accessToken, accessSecret))
	if err != nil {
		return nil, fmt.Errorf("twitter identity lookup: %w", err)
	}
	return &model.Integration{
		Platform:     model.PlatformTwitter,
		ExternalID:   me.ID,
		ExternalName: me.Username,
		AccessToken:  accessToken + ":" + accessSecret,
	}, nil
}

func (t *Twitter) SupportsDestinations() bool { return false }

func (t *Twitter) RequiresDestination() bool { return false }

func (t *Twitter) SupportsFetchingRecentPosts() bool { return true }

func (t *Twitter) RequiredFields() []string { return nil }

func (t *Twitter) MaxCharacterLimit() int { return twitterCharacterLimit }

func (t *Twitter) CreateDestinationFromInput(ctx context.Context, rawInput, accessToken string) (*model.Destination, error) {
	return nil, fmt.Errorf("twitter does not support destinations")
}

func (t *Twitter) SearchDestinations(ctx context.Context, query, accessToken string) ([]*model.Destination, error) {
	return nil, fmt.Errorf("twitter does not support destinations")
}

type twitterTimelineOptions struct {
	MaxResults  int    `url:"max_results"`
	TweetFields string `url:"tweet.fields"`
}

func (t *Twitter) FetchRecentPosts(ctx context.Context, accessToken string, creds *model.ResolvedCredential) ([]*model.RemotePost, error) {
	token, secret, err := splitToken(accessToken)
	if err != nil {
		return nil, err
	}
	client := t.signedClient(ctx, creds, token, secret)
	me, err := t.usersMe(ctx, client)
	if err != nil {
		return nil, err
	}
	params, err := query.Values(twitterTimelineOptions{MaxResults: 50, TweetFields: "created_at"})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/2/users/%s/tweets?%s", t.apiBase, url.PathEscape(me.ID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter timeline returned status %d", resp.StatusCode)
	}
	var body struct {
		Data []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	posts := make([]*model.RemotePost, 0, len(body.Data))
	for _, tweet := range body.Data {
		post := &model.RemotePost{
			ExternalID: tweet.ID,
			Content:    tweet.Text,
			URL:        "https://x.com/i/web/status/" + tweet.ID,
		}
		if ts, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
			post.PostedAt = &ts
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// apiErrorDetail extracts a short human-readable detail from a platform
// error body without echoing the whole payload into stored fail reasons.
func apiErrorDetail(body []byte) string {
	var parsed struct {
		Detail  string `json:"detail"`
		Title   string `json:"title"`
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Detail != "":
			return parsed.Detail
		case parsed.Title != "":
			return parsed.Title
		case parsed.Message != "":
			return parsed.Message
		case len(parsed.Errors) > 0 && parsed.Errors[0].Message != "":
			return parsed.Errors[0].Message
		}
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}
