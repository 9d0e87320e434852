package ui

// The Color* functions return the escape sequence of the current theme for
// each role. They return "" when colours are disabled.

// ColorReset clears all formatting.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed is used for errors.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen is used for result lines and successful searches.
func ColorGreen() string { return GetCurrentTheme().Result }

// ColorYellow is used for warnings and durations.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue is used for group positions and expressions.
func ColorBlue() string { return GetCurrentTheme().Accent }

// ColorCyan is used for banners and field values.
func ColorCyan() string { return GetCurrentTheme().Banner }

// ColorGrey is used for progress lines.
func ColorGrey() string { return GetCurrentTheme().Muted }

// ColorBold starts bold text.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline starts underlined text.
func ColorUnderline() string { return GetCurrentTheme().Underline }
