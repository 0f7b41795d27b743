package social

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	oauth2linkedin "golang.org/x/oauth2/linkedin"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
)

const linkedinCharacterLimit = 3000

// LinkedIn posts member shares through the ugcPosts endpoint with a plain
// OAuth2 bearer token.
type LinkedIn struct {
	apiBase  string
	authBase string
	http     *http.Client
}

func NewLinkedIn() *LinkedIn {
	return &LinkedIn{
		apiBase:  "https://api.linkedin.com",
		authBase: "https://www.linkedin.com",
		http:     newHTTPClient(),
	}
}

func (l *LinkedIn) Platform() model.Platform { return model.PlatformLinkedIn }

func (l *LinkedIn) oauthConfig(creds *model.ResolvedCredential) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       []string{"openid", "profile", "w_member_social"},
		Endpoint:     oauth2linkedin.Endpoint,
	}
}

type linkedinProfile struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
}

func (l *LinkedIn) userinfo(ctx context.Context, accessToken string) (*linkedinProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.apiBase+"/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkedin userinfo returned status %d", resp.StatusCode)
	}
	var profile linkedinProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.Sub == "" {
		return nil, fmt.Errorf("linkedin userinfo carried no member id")
	}
	return &profile, nil
}

func (l *LinkedIn) ValidateCredentials(ctx context.Context, accessToken string, creds *model.ResolvedCredential) bool {
	_, err := l.userinfo(ctx, accessToken)
	return err == nil
}

func (l *LinkedIn) PostContent(ctx context.Context, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) *model.PostResult {
	if content.Media != nil {
		return failure(model.ResultCodePlatformError, "linkedin media posting is not supported")
	}
	profile, err := l.userinfo(ctx, accessToken)
	if err != nil {
		return failure(model.ResultCodeCredentialsInvalid, "linkedin identity lookup failed: %v", err)
	}

	payload := map[string]interface{}{
		"author":         "urn:li:person:" + profile.Sub,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": content.Text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	raw, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.apiBase+"/v2/ugcPosts", bytes.NewReader(raw))
	if err != nil {
		return failure(model.ResultCodePlatformError, "linkedin request build failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	resp, err := l.http.Do(req)
	if err != nil {
		return failure(model.ResultCodePlatformError, "linkedin request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("body", string(body)).Error("LinkedIn share creation failed")
		return failure(model.ResultCodePlatformError, "linkedin returned status %d: %s", resp.StatusCode, apiErrorDetail(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &created)
	shareURN := created.ID
	if shareURN == "" {
		shareURN = resp.Header.Get("X-RestLi-Id")
	}
	if shareURN == "" {
		return failure(model.ResultCodePlatformError, "linkedin returned no share id")
	}
	return success("https://www.linkedin.com/feed/update/" + shareURN)
}

// ValidateAppCredentials runs a client_credentials grant. LinkedIn only
// enables that grant for some apps, so any response other than an explicit
// invalid_client is treated as a pass.
func (l *LinkedIn) ValidateAppCredentials(ctx context.Context, clientID, clientSecret string) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.authBase+"/oauth/v2/accessToken", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("linkedin credential check failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var parsed struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &parsed)
	if parsed.Error == "invalid_client" || resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("linkedin rejected the app credentials for client id %s", clientID)
	}
	return nil
}

func (l *LinkedIn) StartAuthorization(ctx context.Context, userID string, creds *model.ResolvedCredential) (*model.AuthSession, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	authURL := l.oauthConfig(creds).AuthCodeURL(state)
	return &model.AuthSession{URL: authURL, State: state, Secret: state}, nil
}

func (l *LinkedIn) CompleteAuthorization(ctx context.Context, cb *model.AuthCallback, creds *model.ResolvedCredential) (*model.Integration, error) {
	if cb.State == "" || cb.State != cb.CookieSecret {
		return nil, fmt.Errorf("oauth state does not match the pending authorization")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.http)
	token, err := l.oauthConfig(creds).Exchange(ctx, cb.Code)
	if err != nil {
		return nil, fmt.Errorf("linkedin code exchange: %w", err)
	}
	profile, err := l.userinfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("linkedin identity lookup: %w", err)
	}
	integration := &model.Integration{
		Platform:     model.PlatformLinkedIn,
		ExternalID:   profile.Sub,
		ExternalName: profile.Name,
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

func (l *LinkedIn) SupportsDestinations() bool { return false }

func (l *LinkedIn) RequiresDestination() bool { return false }

func (l *LinkedIn) SupportsFetchingRecentPosts() bool { return false }

func (l *LinkedIn) RequiredFields() []string { return nil }

func (l *LinkedIn) MaxCharacterLimit() int { return linkedinCharacterLimit }

func (l *LinkedIn) CreateDestinationFromInput(ctx context.Context, rawInput, accessToken string) (*model.Destination, error) {
	return nil, fmt.Errorf("linkedin does not support destinations")
}

func (l *LinkedIn) SearchDestinations(ctx context.Context, query, accessToken string) ([]*model.Destination, error) {
	return nil, fmt.Errorf("linkedin does not support destinations")
}

func (l *LinkedIn) FetchRecentPosts(ctx context.Context, accessToken string, creds *model.ResolvedCredential) ([]*model.RemotePost, error) {
	return nil, fmt.Errorf("linkedin does not support fetching recent posts")
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
