package nav

import "fmt"

// IconName identifies an icon in the registry
type IconName string

const (
	IconExpand    IconName = "expand"
	IconCollapse  IconName = "collapse"
	IconPeople    IconName = "people"
	IconBriefcase IconName = "briefcase"
	IconLifeguard IconName = "lifeguard"
	IconCalendar  IconName = "calendar"
	IconReport    IconName = "report"
	IconPayment   IconName = "payment"
	IconSetting   IconName = "setting"
	IconStar      IconName = "star"
	IconHome      IconName = "home"
	IconDotted    IconName = "dotted"
	IconProfile   IconName = "profile"
	IconHelp      IconName = "help"
	IconOut       IconName = "out"
	IconSearch    IconName = "search"
	IconCross     IconName = "cross"
	IconLock      IconName = "lock"
	IconPlus      IconName = "plus"
)

// glyphs maps every registered icon to its terminal rendering
var glyphs = map[IconName]string{
	IconExpand:    "»",
	IconCollapse:  "«",
	IconPeople:    "☺",
	IconBriefcase: "▤",
	IconLifeguard: "⊕",
	IconCalendar:  "▦",
	IconReport:    "≡",
	IconPayment:   "$",
	IconSetting:   "⚙",
	IconStar:      "★",
	IconHome:      "⌂",
	IconDotted:    "⋯",
	IconProfile:   "◉",
	IconHelp:      "?",
	IconOut:       "⏻",
	IconSearch:    "⌕",
	IconCross:     "✕",
	IconLock:      "⚿",
	IconPlus:      "+",
}

// Icons returns every registered icon name
func Icons() []IconName {
	names := make([]IconName, 0, len(glyphs))
	for name := range glyphs {
		names = append(names, name)
	}
	return names
}

// Valid reports whether n is a registered icon
func (n IconName) Valid() bool {
	_, ok := glyphs[n]
	return ok
}

// Glyph returns the terminal rendering of n, or a blank for unknown names
func (n IconName) Glyph() string {
	if g, ok := glyphs[n]; ok {
		return g
	}
	return " "
}

// ParseIcon validates an icon name
func ParseIcon(s string) (IconName, error) {
	n := IconName(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown icon %q", s)
	}
	return n, nil
}
