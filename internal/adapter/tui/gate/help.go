package gate

import (
	"github.com/charmbracelet/glamour"

	"reelist/internal/adapter/tui/components"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/domain"
)

const helpMarkdown = `# Reelist

Reelist guides a media server through its Trakt and TMDB setup, watches the
library enrichment build, and then keeps an eye on server health.

## Keys

**Home**

- ` + "`r`" + ` refresh all panels now
- ` + "`b`" + ` rebuild the enrichment library
- ` + "`s`" + ` re-enter the setup wizard
- ` + "`q`" + ` quit

**Build monitor**

- ` + "`s`" + ` skip the enrichment build
- ` + "`r`" + ` retry after a failure
- ` + "`Esc`" + ` continue while the build runs in the background

**Setup wizard**

- ` + "`Enter`" + ` submit the current field
- ` + "`Esc`" + ` go back one step
- ` + "`p`" + ` paste the redirect URL when no browser is available
- ` + "`F1`" + ` open this help (` + "`?`" + ` stays typable in text fields)

## Commands

Run ` + "`reelist doctor`" + ` for a local diagnosis, ` + "`reelist discover`" + `
to find servers on the network, and ` + "`reelist history`" + ` for past
enrichment runs.
`

// renderHelp renders the help overlay at the given terminal width.
func renderHelp(width int) string {
	wrap := theme.Clamp(width-4, 40, theme.MaxContentWidth)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out + "\n" + theme.TextMuted.Render("  Press ? or Esc to close")
}

// renderHelpStatus renders the probe snapshot taken when help was opened,
// using the same panel the wizard shows.
func renderHelpStatus(set domain.SignalSet, enrichment domain.ReadinessSignal) string {
	panel := components.NewSignalPanel()
	panel.SetSignals(set, enrichment)
	return theme.TextMuted.Render("  Server readiness right now") + "\n" + panel.View()
}
