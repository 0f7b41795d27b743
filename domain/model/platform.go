package model

// Platform identifies a social network a post can be published to.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformReddit    Platform = "reddit"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// KnownPlatforms lists every platform the registry knows about, implemented or not.
func KnownPlatforms() []Platform {
	return []Platform{
		PlatformTwitter,
		PlatformLinkedIn,
		PlatformReddit,
		PlatformFacebook,
		PlatformInstagram,
		PlatformTikTok,
		PlatformYouTube,
	}
}

func IsValidPlatform(v string) bool {
	for _, p := range KnownPlatforms() {
		if string(p) == v {
			return true
		}
	}
	return false
}
