package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/cache"
)

type IDestinationUsecase interface {
	SaveRecent(ctx context.Context, userID string, platform model.Platform, dest *model.Destination) error
	GetRecent(ctx context.Context, userID string, platform model.Platform, limit int) ([]*model.RecentDestination, error)
	CreateFromInput(ctx context.Context, userID string, platform model.Platform, rawInput string, integrationID int64) (*model.Destination, error)
	Search(ctx context.Context, userID string, platform model.Platform, query string, integrationID int64) ([]*model.Destination, error)
}

// DestinationUsecase tracks destination reuse and fronts the adapter's
// destination operations. The Redis cache is optional; a nil cache just
// means every read hits the store.
type DestinationUsecase struct {
	destinations repository.IDestination
	integrations repository.IIntegration
	registry     IPlatformRegistry
	cache        *cache.DestinationCache
}

func NewDestinationUsecase(destinations repository.IDestination, integrations repository.IIntegration, registry IPlatformRegistry, destCache *cache.DestinationCache) *DestinationUsecase {
	return &DestinationUsecase{
		destinations: destinations,
		integrations: integrations,
		registry:     registry,
		cache:        destCache,
	}
}

func (u *DestinationUsecase) SaveRecent(ctx context.Context, userID string, platform model.Platform, dest *model.Destination) error {
	if dest == nil || dest.ID == "" {
		return fmt.Errorf("destination id is required")
	}
	recent := &model.RecentDestination{
		UserID:        userID,
		Platform:      platform,
		DestinationID: dest.ID,
		Type:          dest.Type,
		Name:          dest.Name,
	}
	if dest.Description != "" {
		desc := dest.Description
		recent.Description = &desc
	}
	if len(dest.Metadata) > 0 {
		raw, err := json.Marshal(dest.Metadata)
		if err == nil {
			encoded := string(raw)
			recent.Metadata = &encoded
		}
	}
	if err := u.destinations.Upsert(ctx, recent); err != nil {
		return fmt.Errorf("save recent destination: %w", err)
	}
	u.cache.Invalidate(ctx, userID, platform)
	return nil
}

func (u *DestinationUsecase) GetRecent(ctx context.Context, userID string, platform model.Platform, limit int) ([]*model.RecentDestination, error) {
	if limit <= 0 {
		limit = 10
	}
	if cached := u.cache.Get(ctx, userID, platform, limit); cached != nil {
		return cached, nil
	}
	list, err := u.destinations.GetRecent(ctx, userID, platform, limit)
	if err != nil {
		return nil, err
	}
	u.cache.Set(ctx, userID, platform, limit, list)
	return list, nil
}

func (u *DestinationUsecase) CreateFromInput(ctx context.Context, userID string, platform model.Platform, rawInput string, integrationID int64) (*model.Destination, error) {
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	if !adapter.SupportsDestinations() {
		return nil, fmt.Errorf("%s does not support destinations", platform)
	}
	token := u.accessToken(ctx, userID, integrationID)
	dest, err := adapter.CreateDestinationFromInput(ctx, rawInput, token)
	if err != nil {
		return nil, err
	}
	if err := u.SaveRecent(ctx, userID, platform, dest); err != nil {
		return nil, err
	}
	return dest, nil
}

func (u *DestinationUsecase) Search(ctx context.Context, userID string, platform model.Platform, query string, integrationID int64) ([]*model.Destination, error) {
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	if !adapter.SupportsDestinations() {
		return nil, fmt.Errorf("%s does not support destinations", platform)
	}
	return adapter.SearchDestinations(ctx, query, u.accessToken(ctx, userID, integrationID))
}

// accessToken best-effort resolves the user's token for live enrichment;
// an empty token degrades to unauthenticated behavior in the adapter.
func (u *DestinationUsecase) accessToken(ctx context.Context, userID string, integrationID int64) string {
	if integrationID == 0 {
		return ""
	}
	integration, err := u.integrations.GetByID(ctx, integrationID)
	if err != nil || integration == nil || integration.UserID != userID {
		return ""
	}
	return integration.AccessToken
}

// ParseRecentMetadata decodes a stored metadata blob; malformed JSON yields
// nil, never an error.
func ParseRecentMetadata(recent *model.RecentDestination) map[string]string {
	if recent == nil || recent.Metadata == nil {
		return nil
	}
	var metadata map[string]string
	if json.Unmarshal([]byte(*recent.Metadata), &metadata) != nil {
		return nil
	}
	return metadata
}
