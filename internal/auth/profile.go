package auth

import (
	"context"
	"fmt"
)

// Provider identifies a social sign-on source. The set is closed here but
// ProfileFetcher treats it as open for extension.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderApple    Provider = "apple"
	ProviderFacebook Provider = "facebook"
)

// ValidProvider reports whether p is a supported provider.
func ValidProvider(p Provider) bool {
	switch p {
	case ProviderGoogle, ProviderApple, ProviderFacebook:
		return true
	}
	return false
}

// Profile is a third-party identity normalized into the shape
// IdentityService expects. Provider-specific HTTP logic lives behind the
// fetcher, never in the core.
type Profile struct {
	Name  string
	Email string
	Phone string
}

// ProfileFetcher exchanges an opaque provider token for a normalized
// profile.
type ProfileFetcher interface {
	Fetch(ctx context.Context, provider Provider, token string) (Profile, error)
}

// StaticProfileFetcher maps provider tokens to canned profiles. Dev and test
// use only; production wires a real fetcher per provider.
type StaticProfileFetcher map[string]Profile

var _ ProfileFetcher = (StaticProfileFetcher)(nil)

func (f StaticProfileFetcher) Fetch(ctx context.Context, provider Provider, token string) (Profile, error) {
	profile, ok := f[token]
	if !ok {
		return Profile{}, fmt.Errorf("no profile for %s token", provider)
	}
	return profile, nil
}
