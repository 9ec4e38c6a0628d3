package console

import "github.com/charmbracelet/lipgloss"

// Marks and styles shared by both the interactive and CI renderers,
// adapted from internal/ui/style.go and internal/ui/applystyle.go —
// trimmed of resource.Kind-specific icons, since vx only ever installs
// one kind of thing: a runtime.
var (
	doneMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	failMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnLogStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	doneMark    = doneMarkStyle.Render("✓")
	failMark    = failMarkStyle.Render("✗")
	runningMark = "=>"
)

const (
	progressBarWidth = 20
	progressFull     = '█'
	progressEmpty    = '░'
)
