package usecase

import (
	"context"
	"fmt"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/logger"
)

type IIntegrationUsecase interface {
	StartAuth(ctx context.Context, userID string, platform model.Platform) (*model.AuthSession, error)
	CompleteAuth(ctx context.Context, userID string, platform model.Platform, cb *model.AuthCallback) (*model.Integration, error)
	GetIntegrations(ctx context.Context, userID string) ([]*model.Integration, error)
	DeleteIntegration(ctx context.Context, userID string, id int64) error
}

// IntegrationUsecase owns the OAuth connect flow and the connected-account
// listing. Reconnecting an account the user already linked refreshes its
// tokens through the repository upsert instead of duplicating the row.
type IntegrationUsecase struct {
	integrations repository.IIntegration
	registry     IPlatformRegistry
	resolver     ICredentialResolver
}

func NewIntegrationUsecase(integrations repository.IIntegration, registry IPlatformRegistry, resolver ICredentialResolver) *IntegrationUsecase {
	return &IntegrationUsecase{integrations: integrations, registry: registry, resolver: resolver}
}

func (u *IntegrationUsecase) StartAuth(ctx context.Context, userID string, platform model.Platform) (*model.AuthSession, error) {
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	creds, err := u.resolver.Resolve(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrCredentialsNotConfigured
	}
	session, err := adapter.StartAuthorization(ctx, userID, creds)
	if err != nil {
		return nil, fmt.Errorf("start %s authorization: %w", platform, err)
	}
	return session, nil
}

func (u *IntegrationUsecase) CompleteAuth(ctx context.Context, userID string, platform model.Platform, cb *model.AuthCallback) (*model.Integration, error) {
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	creds, err := u.resolver.Resolve(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrCredentialsNotConfigured
	}
	integration, err := adapter.CompleteAuthorization(ctx, cb, creds)
	if err != nil {
		return nil, fmt.Errorf("complete %s authorization: %w", platform, err)
	}
	integration.UserID = userID
	saved, err := u.integrations.Upsert(ctx, integration)
	if err != nil {
		return nil, fmt.Errorf("save integration: %w", err)
	}
	logger.GetLogger().WithField("user_id", userID).WithField("platform", platform).WithField("external_name", saved.ExternalName).Info("Integration connected")
	return saved, nil
}

func (u *IntegrationUsecase) GetIntegrations(ctx context.Context, userID string) ([]*model.Integration, error) {
	return u.integrations.GetByUser(ctx, userID)
}

func (u *IntegrationUsecase) DeleteIntegration(ctx context.Context, userID string, id int64) error {
	integration, err := u.integrations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if integration == nil {
		return ErrNotFound
	}
	if integration.UserID != userID {
		return ErrForbidden
	}
	return u.integrations.Delete(ctx, id, userID)
}
