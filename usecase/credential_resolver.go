package usecase

import (
	"context"
	"fmt"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/configuration"
)

// IPlatformRegistry hands out the adapter for a platform.
type IPlatformRegistry interface {
	Get(platform model.Platform) (repository.ISocialPlatform, error)
}

// ICredentialResolver answers the effective OAuth app credential for a
// (user, platform) pair. nil with no error means nothing is configured.
type ICredentialResolver interface {
	Resolve(ctx context.Context, userID string, platform model.Platform) (*model.ResolvedCredential, error)
}

// CredentialResolver applies system-first precedence: a system-wide
// credential from configuration always wins; a user-supplied row from the
// app_credentials table is the fallback.
type CredentialResolver struct {
	credentials repository.ICredential
}

func NewCredentialResolver(credentials repository.ICredential) *CredentialResolver {
	return &CredentialResolver{credentials: credentials}
}

func (r *CredentialResolver) Resolve(ctx context.Context, userID string, platform model.Platform) (*model.ResolvedCredential, error) {
	if system := configuration.SystemOAuthClient(string(platform)); system != nil {
		return &model.ResolvedCredential{
			ClientID:     system.ClientID,
			ClientSecret: system.ClientSecret,
			RedirectURI:  system.RedirectURI,
			Source:       model.CredentialSourceSystem,
		}, nil
	}
	stored, err := r.credentials.Get(ctx, userID, platform)
	if err != nil {
		return nil, fmt.Errorf("load user credential: %w", err)
	}
	if stored == nil {
		return nil, nil
	}
	return &model.ResolvedCredential{
		ClientID:     stored.ClientID,
		ClientSecret: stored.ClientSecret,
		RedirectURI:  defaultRedirectURI(platform),
		Source:       model.CredentialSourceUser,
	}, nil
}

func defaultRedirectURI(platform model.Platform) string {
	return fmt.Sprintf("%s/auth/%s/callback", configuration.C.App.BaseURL, platform)
}

// CredentialStatus is what the credential endpoints expose: which source
// is active, never the secret.
type CredentialStatus struct {
	Platform   model.Platform          `json:"platform"`
	Configured bool                    `json:"configured"`
	Source     *model.CredentialSource `json:"source,omitempty"`
	ClientID   string                  `json:"client_id,omitempty"`
}

type ICredentialUsecase interface {
	Save(ctx context.Context, userID string, platform model.Platform, clientID, clientSecret string) error
	Status(ctx context.Context, userID string, platform model.Platform) (*CredentialStatus, error)
	Delete(ctx context.Context, userID string, platform model.Platform) error
}

// CredentialUsecase manages user-supplied app credentials. Save validates
// the pair live against the platform before anything is persisted.
type CredentialUsecase struct {
	credentials repository.ICredential
	registry    IPlatformRegistry
	resolver    ICredentialResolver
}

func NewCredentialUsecase(credentials repository.ICredential, registry IPlatformRegistry, resolver ICredentialResolver) *CredentialUsecase {
	return &CredentialUsecase{credentials: credentials, registry: registry, resolver: resolver}
}

func (u *CredentialUsecase) Save(ctx context.Context, userID string, platform model.Platform, clientID, clientSecret string) error {
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("client id and client secret are both required")
	}
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return err
	}
	if err := adapter.ValidateAppCredentials(ctx, clientID, clientSecret); err != nil {
		return err
	}
	return u.credentials.Upsert(ctx, &model.AppCredential{
		UserID:       userID,
		Platform:     platform,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

func (u *CredentialUsecase) Status(ctx context.Context, userID string, platform model.Platform) (*CredentialStatus, error) {
	resolved, err := u.resolver.Resolve(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	status := &CredentialStatus{Platform: platform}
	if resolved != nil {
		status.Configured = true
		source := resolved.Source
		status.Source = &source
		status.ClientID = resolved.ClientID
	}
	return status, nil
}

func (u *CredentialUsecase) Delete(ctx context.Context, userID string, platform model.Platform) error {
	return u.credentials.Delete(ctx, userID, platform)
}
