package domain

// SettingsKeySite is the settings row holding SiteSettings.
const SettingsKeySite = "site"

// SiteSettings is the owner-editable site configuration, stored as one
// jsonb settings row and read fresh wherever a value is needed.
type SiteSettings struct {
	RegistrationGems     int64 `json:"registration_gems"`
	RegistrationCrystals int64 `json:"registration_crystals"`

	DailyRewardGems        int64 `json:"daily_reward_gems"`
	DailyRewardCrystals    int64 `json:"daily_reward_crystals"`
	DailyRewardCooldownMin int   `json:"daily_reward_cooldown_minutes"`
	DailyRewardBudget      int64 `json:"daily_reward_budget"`

	TransferBonusGems     int64 `json:"transfer_bonus_gems"`
	TransferBonusCrystals int64 `json:"transfer_bonus_crystals"`

	// Crystals consumed per gem credited in /me/exchange.
	ExchangeRate int64 `json:"exchange_rate"`

	MaintenanceMode bool `json:"maintenance_mode"`
}

// DefaultSiteSettings seeds the settings row on first boot.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		RegistrationGems:       1000,
		RegistrationCrystals:   50,
		DailyRewardGems:        250,
		DailyRewardCrystals:    10,
		DailyRewardCooldownMin: 20 * 60,
		DailyRewardBudget:      5_000_000,
		TransferBonusGems:      100_000,
		TransferBonusCrystals:  1000,
		ExchangeRate:           10,
	}
}

// Validate rejects settings that would brick the site.
func (s SiteSettings) Validate() error {
	if s.RegistrationGems < 0 || s.RegistrationCrystals < 0 {
		return ErrValidation("registration bonus cannot be negative")
	}
	if s.DailyRewardGems < 0 || s.DailyRewardCrystals < 0 || s.DailyRewardBudget < 0 {
		return ErrValidation("daily reward values cannot be negative")
	}
	if s.DailyRewardCooldownMin <= 0 {
		return ErrValidation("daily reward cooldown must be positive")
	}
	if s.TransferBonusGems < 0 || s.TransferBonusCrystals < 0 {
		return ErrValidation("transfer bonus cannot be negative")
	}
	if s.ExchangeRate <= 0 {
		return ErrValidation("exchange rate must be positive")
	}
	return nil
}
