package config

import "github.com/j-veylop/omni-quota/internal/display"

// Status bar styles.
const (
	StyleDots       = display.StyleDots
	StylePercentage = display.StylePercentage
)

// ValidStyle reports whether style is a known status bar style.
func ValidStyle(style string) bool {
	return style == StyleDots || style == StylePercentage
}

// DisplayPrefs returns the display preferences carried by c.
func (c *Config) DisplayPrefs() display.Prefs {
	return display.Prefs{
		Style:             c.StatusBarStyle,
		WarningThreshold:  c.WarningThreshold,
		CriticalThreshold: c.CriticalThreshold,
		ShowGeminiPro:     c.ShowGeminiPro,
		ShowGeminiFlash:   c.ShowGeminiFlash,
		ShowOnlyLowQuota:  c.ShowOnlyLowQuota,
	}
}
