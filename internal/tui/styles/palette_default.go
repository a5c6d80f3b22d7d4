package styles

// DefaultTheme is the neon palette of the landing page.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Background: "#000000",
		Panel:      "#050508",
		Text:       "#E0F7FA",
		TextMuted:  "#6B7280",
		Border:     "#1F2937",
		Accent:     "#00F3FF",
		Glow:       "#0051FF",
		Focus:      "#00F3FF",
		Success:    "#4ADE80",
		Warning:    "#FACC15",
		Alert:      "#EF4444",
		Info:       "#60A5FA",
	},
}
