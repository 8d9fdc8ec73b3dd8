package utils

// categoryPalette holds distinct colors handed out to categories.
var categoryPalette = []string{
	"#007AFF", // Blue (primary)
	"#34C759", // Green
	"#FF9500", // Orange
	"#FF3B30", // Red
	"#AF52DE", // Purple
	"#FF2D55", // Pink
	"#5AC8FA", // Light Blue
	"#FFCC00", // Yellow
	"#32D74B", // Light Green
	"#FF6B6B", // Coral
	"#4ECDC4", // Teal
	"#95E1D3", // Mint
	"#F38181", // Salmon
	"#AA96DA", // Lavender
	"#FCBAD3", // Rose
	"#A8E6CF", // Mint Green
	"#FFD93D", // Golden Yellow
	"#6BCB77", // Forest Green
	"#4D96FF", // Sky Blue
	"#9B59B6", // Amethyst
}

// CategoryPalette returns a copy of the category color palette.
func CategoryPalette() []string {
	return append([]string(nil), categoryPalette...)
}

// ColorForCategory maps a category name to a palette color. The same name
// always yields the same color, across runs and machines.
func ColorForCategory(name string) string {
	return categoryPalette[int(nameHash(name)%uint32(len(categoryPalette)))]
}

// nameHash is the 31-multiplier string hash over UTF-16 code units, folded
// to its magnitude so the palette index never goes negative.
func nameHash(s string) uint32 {
	var h int32
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = 31*h + int32(r)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}
