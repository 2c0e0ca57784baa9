package simulator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/atlanticdynamic/framelink/internal/child"
	"github.com/atlanticdynamic/framelink/internal/fancy"
	"github.com/atlanticdynamic/framelink/internal/hostsim"
	"github.com/atlanticdynamic/framelink/internal/protocol"
)

// Report is what a simulation observed.
type Report struct {
	Name           string
	State          string
	Parent         string
	DisplayContext protocol.DisplayContext
	Props          child.Props
	ChildEvents    []string
	Steps          []StepResult
	Hosts          []HostReport
	Windows        []WindowReport
}

// HostReport lists the messages one host received.
type HostReport struct {
	Window string
	Events []hostsim.Event
}

// WindowReport is the final state of one window.
type WindowReport struct {
	ID          string
	Location    string
	Width       int
	Height      int
	Focused     bool
	Navigations []string
}

// Report snapshots the simulation. It can be called at any time.
func (s *Simulation) Report() *Report {
	r := &Report{
		Name:           s.scenario.Name,
		State:          s.child.GetState(),
		Parent:         s.child.Parent().ID(),
		DisplayContext: s.child.DisplayContext(),
		Props:          s.child.Props(),
		ChildEvents:    s.events.snapshot(),
		Steps:          s.driver.Results(),
	}

	for _, w := range s.scenario.Hosts() {
		r.Hosts = append(r.Hosts, HostReport{Window: w.ID, Events: s.hosts[w.ID].Events()})
	}
	for _, w := range s.scenario.Windows {
		win := s.windows[w.ID]
		width, height := win.Size()
		r.Windows = append(r.Windows, WindowReport{
			ID:          w.ID,
			Location:    win.Location(),
			Width:       width,
			Height:      height,
			Focused:     win.Focused(),
			Navigations: win.Navigations(),
		})
	}
	return r
}

// Failed returns the steps that returned an error.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, step := range r.Steps {
		if step.Err != nil {
			out = append(out, step)
		}
	}
	return out
}

// Host returns the report of the host in window id.
func (r *Report) Host(id string) (HostReport, bool) {
	for _, h := range r.Hosts {
		if h.Window == id {
			return h, true
		}
	}
	return HostReport{}, false
}

// Window returns the final state of window id.
func (r *Report) Window(id string) (WindowReport, bool) {
	for _, w := range r.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowReport{}, false
}

// Count returns how many messages of msgType the host received.
func (h HostReport) Count(msgType string) int {
	n := 0
	for _, e := range h.Events {
		if e.Type == msgType {
			n++
		}
	}
	return n
}

func (r *Report) String() string {
	title := r.Name
	if title == "" {
		title = "Simulation"
	}
	out := fancy.NewReport(title)

	c := out.Section("Child", fancy.StateText(r.State))
	c.Child("parent: " + fancy.WindowText(r.Parent))
	if r.DisplayContext != "" {
		c.Child("context: " + r.DisplayContext.String())
	}
	if len(r.Props) > 0 {
		props := fancy.BranchNode("Props", fmt.Sprintf("(%d)", len(r.Props)))
		for _, k := range slices.Sorted(maps.Keys(r.Props)) {
			props.Child(fmt.Sprintf("%s: %v", k, r.Props[k]))
		}
		c.Child(props)
	}
	if len(r.ChildEvents) > 0 {
		c.Child("events: " + strings.Join(r.ChildEvents, ", "))
	}

	steps := out.Section("Steps", fmt.Sprintf("(%d)", len(r.Steps)))
	for _, step := range r.Steps {
		label := fmt.Sprintf("%d. %s", step.Index, fancy.MessageText(step.Step.Action))
		if step.Err != nil {
			label += " " + fancy.ErrorText(step.Err.Error())
		} else {
			label += " " + fancy.ValidText("ok")
		}
		steps.Child(label)
	}

	hosts := out.Section("Hosts", fmt.Sprintf("(%d)", len(r.Hosts)))
	for _, h := range r.Hosts {
		node := fancy.Tree().Root(fancy.HostText(h.Window))
		for _, e := range h.Events {
			node.Child(fmt.Sprintf("%s from %s", fancy.MessageText(e.Type), e.Source))
		}
		hosts.Child(node)
	}

	windows := out.Section("Windows", fmt.Sprintf("(%d)", len(r.Windows)))
	for _, w := range r.Windows {
		label := fmt.Sprintf("%s %dx%d", fancy.WindowText(w.ID), w.Width, w.Height)
		if w.Location != "" {
			label += " " + fancy.PathText(fancy.TruncateString(w.Location, 60))
		}
		if w.Focused {
			label += " " + fancy.InfoStyle.Render("focused")
		}
		windows.Child(label)
	}
	return out.String()
}
