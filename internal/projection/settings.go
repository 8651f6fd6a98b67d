package projection

import (
	"context"
	"time"

	"github.com/gemcade/platform/internal/domain"
)

const (
	siteSettingsKey = "projection:settings:site"
	siteSettingsTTL = 5 * time.Second
)

// CacheSiteSettings stores a short-lived settings snapshot so the
// maintenance gate does not hit the database on every request.
func CacheSiteSettings(ctx context.Context, store Store, settings domain.SiteSettings) error {
	return SetJSON(ctx, store, siteSettingsKey, settings, siteSettingsTTL)
}

// CachedSiteSettings returns the cached settings snapshot if present.
func CachedSiteSettings(ctx context.Context, store Store) (domain.SiteSettings, bool) {
	var settings domain.SiteSettings
	if err := GetJSON(ctx, store, siteSettingsKey, &settings); err != nil {
		return domain.SiteSettings{}, false
	}
	return settings, true
}

// InvalidateSiteSettings drops the snapshot so an update is visible on
// the next request instead of after the TTL.
func InvalidateSiteSettings(ctx context.Context, store Store) error {
	return store.Delete(ctx, siteSettingsKey)
}
