package fancy

import (
	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/charmbracelet/lipgloss"
)

var (
	RootStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorDarkGray)

	WindowStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	HostStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	ChildStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	OKStyle = lipgloss.NewStyle().
		Foreground(ColorGreen)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

func WindowText(text string) string {
	return WindowStyle.Render(text)
}

func HostText(text string) string {
	return HostStyle.Render(text)
}

func ChildText(text string) string {
	return ChildStyle.Render(text)
}

// MessageText styles a protocol message type.
func MessageText(text string) string {
	return MessageStyle.Render(text)
}

// StateText colors a lifecycle state: green when it ended well, red when
// errored, plain info otherwise.
func StateText(state string) string {
	switch state {
	case finitestate.StatusEntered, finitestate.StatusClosed:
		return OKStyle.Render(state)
	case finitestate.StatusErrored:
		return ErrorStyle.Render(state)
	default:
		return InfoStyle.Render(state)
	}
}

func ValidText(text string) string {
	return OKStyle.Render(text)
}

func ErrorText(text string) string {
	return ErrorStyle.Render(text)
}

func PathText(text string) string {
	return InfoStyle.Render(text)
}
