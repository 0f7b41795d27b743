package social

import (
	"fmt"

	"postqueue/domain/model"
	"postqueue/domain/repository"
)

// Registry holds one adapter instance per platform. Adapters are
// stateless beyond their HTTP clients, so a single eagerly-built instance
// serves every caller.
type Registry struct {
	adapters map[model.Platform]repository.ISocialPlatform
}

func NewRegistry() *Registry {
	return &Registry{adapters: map[model.Platform]repository.ISocialPlatform{
		model.PlatformTwitter:   NewTwitter(),
		model.PlatformLinkedIn:  NewLinkedIn(),
		model.PlatformReddit:    NewReddit(),
		model.PlatformFacebook:  NewNotImplemented(model.PlatformFacebook),
		model.PlatformInstagram: NewNotImplemented(model.PlatformInstagram),
		model.PlatformTikTok:    NewNotImplemented(model.PlatformTikTok),
		model.PlatformYouTube:   NewNotImplemented(model.PlatformYouTube),
	}}
}

// Get answers the adapter for a platform. An unknown platform is a caller
// bug and fails loudly instead of returning a silent no-op.
func (r *Registry) Get(platform model.Platform) (repository.ISocialPlatform, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	return adapter, nil
}
