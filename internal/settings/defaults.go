package settings

// Default domain names.
const (
	DomainWindow       = "window"
	DomainAppearance   = "appearance"
	DomainPerformance  = "performance"
	DomainNotification = "notification"
)

// DefaultDomains returns the HyDE setting domains with their default backing
// files. Each call returns fresh values, so callers may override File and
// Format freely.
func DefaultDomains() []Domain {
	return []Domain{
		{
			Name:   DomainWindow,
			File:   "window.conf",
			Format: "kv",
			Keys: []Key{
				Bool("enableAnimations", true, "Animate window open, close and move"),
				Bool("showBorders", true, "Draw borders around windows"),
				Int("borderWidth", 2, 0, 10, "Window border width in pixels"),
				Int("gapsIn", 5, 0, 50, "Gap between tiled windows"),
				Int("gapsOut", 10, 0, 100, "Gap between windows and monitor edges"),
				Enum("layout", "dwindle", []string{"dwindle", "master"}, "Tiling layout"),
			},
		},
		{
			Name:   DomainAppearance,
			File:   "appearance.ini",
			Format: "ini",
			Keys: []Key{
				Int("borderRadius", 8, 0, 20, "Window corner radius in pixels"),
				Bool("enableTransparency", true, "Allow translucent windows"),
				Bool("showDesktopIcons", true, "Show icons on the desktop"),
				{
					Name:        "iconTheme",
					Type:        TypeString,
					Default:     "Papirus",
					Pattern:     `^[^/\s][^/]*$`,
					Description: "Icon theme name",
				},
				{
					Name:        "cursorTheme",
					Type:        TypeString,
					Default:     "Bibata-Modern-Classic",
					Pattern:     `^[^/\s][^/]*$`,
					Description: "Cursor theme name",
				},
				Float("activeOpacity", 1.0, 0, 1, "Opacity of the focused window"),
			},
		},
		{
			Name:   DomainPerformance,
			File:   "performance.yaml",
			Format: "yaml",
			Keys: []Key{
				Bool("enableCompositing", true, "Run the compositor"),
				Bool("reduceAnimations", false, "Shorten or skip animations"),
				Bool("vsync", true, "Synchronize frames to the display refresh"),
				Bool("tearing", false, "Allow tearing for fullscreen games"),
			},
		},
		{
			Name:   DomainNotification,
			File:   "notification.json",
			Format: "json",
			Keys: []Key{
				Bool("enableNotifications", true, "Show desktop notifications"),
				Bool("showBadges", true, "Show unread badges"),
				Int("timeout", 5000, 0, 60000, "Notification timeout in milliseconds"),
				Enum("position", "top-right", []string{
					"top-right", "top-left", "bottom-right", "bottom-left", "top-center", "bottom-center",
				}, "Screen corner for notifications"),
			},
		},
	}
}

// DefaultRegistry returns a registry of DefaultDomains. It panics if the
// built-in declarations are inconsistent.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDomains()...)
	if err != nil {
		panic(err)
	}
	return r
}
