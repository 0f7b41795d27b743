// Package social implements the platform adapters behind the
// repository.ISocialPlatform contract, plus the registry that hands them
// out and the orchestration wrapper the dispatch service calls.
package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/logger"
)

const requestTimeout = 15 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// Publish runs the uniform posting pipeline: app credentials present,
// access token present, token validates, then the platform-specific
// publish. It never panics and never returns a Go error; every failure is
// folded into the result so the dispatch service treats all platforms
// identically.
func Publish(ctx context.Context, adapter repository.ISocialPlatform, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) (result *model.PostResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("platform", adapter.Platform()).WithField("panic", r).Error("adapter panicked during publish")
			result = failure(model.ResultCodePlatformError, "unexpected adapter failure: %v", r)
		}
	}()

	if creds == nil {
		return failure(model.ResultCodeCredentialsMissing,
			"no app credentials configured for %s; set up system or user credentials first", adapter.Platform())
	}
	if strings.TrimSpace(accessToken) == "" {
		return failure(model.ResultCodeCredentialsInvalid,
			"no access token stored for this %s integration; re-authorize the account", adapter.Platform())
	}
	if !adapter.ValidateCredentials(ctx, accessToken, creds) {
		return failure(model.ResultCodeCredentialsInvalid,
			"%s rejected the stored access token; re-authorize the account", adapter.Platform())
	}
	return adapter.PostContent(ctx, content, accessToken, creds)
}

func failure(code, format string, args ...interface{}) *model.PostResult {
	return &model.PostResult{Success: false, Code: code, Error: fmt.Sprintf(format, args...)}
}

func success(postURL string) *model.PostResult {
	return &model.PostResult{Success: true, PostURL: postURL}
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
