package theme

// Colours and ttk styles for the preview dashboard. SetDark applies the
// light or dark palette to the base theme.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette is the resolved colour set for one mode.
type Palette struct {
	AppBg     string
	Surface   string
	Primary   string
	Danger    string
	Accent    string
	Text      string
	TextMuted string
}

var (
	light = Palette{
		AppBg:     "#f7f9fb",
		Surface:   "#ffffff",
		Primary:   "#2563eb",
		Danger:    "#dc2626",
		Accent:    "#10b981",
		Text:      "#1e293b",
		TextMuted: "#64748b",
	}
	dark = Palette{
		AppBg:     "#0f172a",
		Surface:   "#1e293b",
		Primary:   "#3b82f6",
		Danger:    "#ef4444",
		Accent:    "#10b981",
		Text:      "#f1f5f9",
		TextMuted: "#94a3b8",
	}
)

// Style names for widgets that need more than the base theme.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStateLabel    = "state.TLabel"
	StyleOnlineLabel   = "online.TLabel"
	StyleOfflineLabel  = "offline.TLabel"
)

// Readout colours for the presenter's grades ("good", "warning", "bad").
const (
	ColorGood = "#16a34a"
	ColorWarn = "#d97706"
	ColorBad  = "#dc2626"
)

var darkMode bool

// Current returns the palette of the active mode.
func Current() Palette {
	if darkMode {
		return dark
	}
	return light
}

// GradeColor maps a grade to its readout colour. Ungraded readouts use the
// muted text colour.
func GradeColor(grade string) string {
	switch grade {
	case "good":
		return ColorGood
	case "warning":
		return ColorWarn
	case "bad":
		return ColorBad
	}
	return Current().TextMuted
}

// SetDark selects the palette and reapplies every style.
func SetDark(on bool) {
	darkMode = on
	p := Current()
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))

	for _, s := range []struct{ name, bg string }{
		{StylePrimaryButton, p.Primary},
		{StyleDangerButton, p.Danger},
	} {
		StyleConfigure(s.name, Background(s.bg), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	}
	StyleConfigure(StyleStateLabel,
		Foreground("white"),
		Background(p.Accent),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
	StyleConfigure(StyleOnlineLabel, Foreground(p.Accent), Padding("2p 1p"))
	StyleConfigure(StyleOfflineLabel, Foreground(p.Danger), Padding("2p 1p"))
}
