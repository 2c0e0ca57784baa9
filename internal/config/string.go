package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/atlanticdynamic/framelink/internal/fancy"
	"github.com/charmbracelet/lipgloss/tree"
)

// String returns a pretty-printed tree representation of the scenario
func (s *Scenario) String() string {
	return ScenarioTree(s)
}

// ScenarioTree renders the window hierarchy, the child and the steps.
func ScenarioTree(s *Scenario) string {
	title := s.Name
	if title == "" {
		title = "Scenario"
	}
	r := fancy.NewReport(fmt.Sprintf("%s (%s)", title, s.Version))

	windows := r.Section("Windows", fmt.Sprintf("(%d)", len(s.Windows)))
	for _, w := range s.Windows {
		if w.Parent == "" && w.Opener == "" {
			windows.Child(s.windowTree(w, ""))
		}
	}

	c := r.Section("Child", fancy.ChildText(s.Child.Tag))
	c.Child("window: " + fancy.WindowText(s.Child.Window))
	for _, k := range slices.Sorted(maps.Keys(s.Child.Metadata)) {
		c.Child(fmt.Sprintf("%s: %s", k, s.Child.Metadata[k]))
	}

	steps := r.Section("Steps", fmt.Sprintf("(%d)", len(s.Steps)))
	for i, step := range s.Steps {
		steps.Child(fmt.Sprintf("%d. %s", i+1, step.describe()))
	}
	return r.String()
}

func (s *Scenario) windowTree(w Window, prefix string) *tree.Tree {
	label := prefix + fancy.WindowText(w.ID)
	if w.Name != "" && w.Name != w.ID {
		label += fancy.InfoStyle.Render(" name=" + w.Name)
	}
	if w.ID == s.Child.Window {
		label += " " + fancy.ChildText("["+s.Child.Tag+"]")
	}
	if w.Host != nil {
		label += " " + fancy.HostText(w.Host.describe())
	}

	t := fancy.Tree().Root(label)
	for _, sub := range s.Windows {
		switch {
		case sub.Parent == w.ID:
			t.Child(s.windowTree(sub, ""))
		case sub.Opener == w.ID:
			t.Child(s.windowTree(sub, fancy.InfoStyle.Render("popup ")))
		}
	}
	return t
}

func (h *Host) describe() string {
	parts := []string{"host"}
	if h.Context != "" {
		parts = append(parts, h.Context)
	}
	if h.Relay != "" {
		parts = append(parts, "relay="+h.Relay)
	}
	if h.Navigate != nil && !*h.Navigate {
		parts = append(parts, "no-navigate")
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (s Step) describe() string {
	action := fancy.MessageText(s.Action)
	switch s.Action {
	case ActionProps:
		return fmt.Sprintf("%s from %s: %s", action, s.From, strings.Join(slices.Sorted(maps.Keys(s.Props)), ", "))
	case ActionHostClose:
		return fmt.Sprintf("%s from %s", action, s.From)
	case ActionHostResize:
		return fmt.Sprintf("%s from %s to %dx%d", action, s.From, s.Width, s.Height)
	case ActionResize:
		return fmt.Sprintf("%s to %dx%d", action, s.Width, s.Height)
	case ActionRedirect:
		return fmt.Sprintf("%s to %s", action, fancy.TruncateString(s.URL, 60))
	case ActionWait:
		return fmt.Sprintf("%s %s", action, s.Duration)
	default:
		return action
	}
}
