package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/ui/theme"
)

const bannerArt = `
 ██╗      ██╗ ███╗   ██╗  ██████╗  ██╗   ██╗  █████╗
 ██║      ██║ ████╗  ██║ ██╔════╝  ██║   ██║ ██╔══██╗
 ██║      ██║ ██╔██╗ ██║ ██║  ███╗ ██║   ██║ ███████║
 ██║      ██║ ██║╚██╗██║ ██║   ██║ ██║   ██║ ██╔══██║
 ███████╗ ██║ ██║ ╚████║ ╚██████╔╝ ╚██████╔╝ ██║  ██║
 ╚══════╝ ╚═╝ ╚═╝  ╚═══╝  ╚═════╝   ╚═════╝  ╚═╝  ╚═╝
                                         f l o w`

const bannerCompact = "L I N G U A F L O W"

// RenderBanner returns the LinguaFlow banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 60 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 60 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
