package feed

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
)

// Nightfox-ish palette. Killer and victim stay distinguishable for the
// common case where neither is the configured player.
const (
	colorTime   = "#738091"
	colorKiller = "#c94f6d"
	colorVictim = "#71839b"
	colorWeapon = "#63cdcf"
	colorPlayer = "#81b29a"
)

type styles struct {
	time      lipgloss.Style
	killer    lipgloss.Style
	victim    lipgloss.Style
	weapon    lipgloss.Style
	player    lipgloss.Style
	highlight lipgloss.Style
}

// Renderer formats kill events as feed lines. The configured player name
// renders emphasized wherever it appears, matching names exactly.
type Renderer struct {
	player string
	colors bool
	styles styles
}

// NewRenderer builds a feed renderer. With colors false every line is
// plain text, for piped output or --no-color.
func NewRenderer(player string, colors bool) *Renderer {
	return &Renderer{
		player: player,
		colors: colors,
		styles: styles{
			time:      lipgloss.NewStyle().Foreground(lipgloss.Color(colorTime)),
			killer:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorKiller)),
			victim:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorVictim)),
			weapon:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorWeapon)),
			player:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorPlayer)).Bold(true),
			highlight: lipgloss.NewStyle().Bold(true),
		},
	}
}

// Line renders one feed line: 15:04:05  KILLER killed VICTIM using WEAPON.
// Highlighted lines carry a leading marker so they stand out even without
// color support.
func (r *Renderer) Line(ev event.KillEvent, highlighted bool) string {
	ts := ev.Timestamp.Local().Format("15:04:05")

	var line string
	if r.colors {
		line = fmt.Sprintf("%s  %s killed %s using %s",
			r.styles.time.Render(ts),
			r.name(ev.Killer, r.styles.killer),
			r.name(ev.Victim, r.styles.victim),
			r.styles.weapon.Render(ev.Weapon),
		)
	} else {
		line = fmt.Sprintf("%s  %s killed %s using %s", ts, ev.Killer, ev.Victim, ev.Weapon)
	}

	if highlighted {
		marker := "▶"
		if r.colors {
			marker = r.styles.highlight.Render(marker)
		}
		line = marker + " " + line
	}
	return line
}

func (r *Renderer) name(name string, fallback lipgloss.Style) string {
	if r.player != "" && name == r.player {
		return r.styles.player.Render(name)
	}
	return fallback.Render(name)
}
