// Package config describes a simulation scenario: a tree of windows, the
// hosts answering in some of them, the child component and the steps to
// run against it. Scenarios are TOML files.
package config

const (
	VersionLatest  = "v1"
	VersionUnknown = "unknown"
)

// Step actions. Child actions drive the child's commands; host actions are
// sent by a host window to the child.
const (
	ActionProps      = "props"
	ActionHostClose  = "host-close"
	ActionHostResize = "host-resize"
	ActionClose      = "close"
	ActionResize     = "resize"
	ActionRedirect   = "redirect"
	ActionFocus      = "focus"
	ActionExit       = "exit"
	ActionWait       = "wait"
)

var hostActions = map[string]bool{
	ActionProps:      true,
	ActionHostClose:  true,
	ActionHostResize: true,
}

var childActions = map[string]bool{
	ActionClose:    true,
	ActionResize:   true,
	ActionRedirect: true,
	ActionFocus:    true,
	ActionExit:     true,
	ActionWait:     true,
}

// Scenario is the root of a scenario file. Fields tagged env_interpolation
// accept ${VAR} and ${VAR:default} references, expanded on load.
type Scenario struct {
	Version  string   `toml:"version"`
	Name     string   `toml:"name"`
	Logging  Logging  `toml:"logging"`
	Timeouts Timeouts `toml:"timeouts"`
	Windows  []Window `toml:"windows"`
	Child    Child    `toml:"child"`
	Steps    []Step   `toml:"steps"`
}

// Logging mirrors the CLI logging flags; flags win when both are set.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output" env_interpolation:"yes"`
}

type Timeouts struct {
	// Request bounds each request on the bus.
	Request Duration `toml:"request"`
	// RedirectDeferral delays the child's local redirect fallback.
	RedirectDeferral Duration `toml:"redirect_deferral"`
	// Run bounds the whole simulation.
	Run Duration `toml:"run"`
}

// Window is one context. Parent makes it a frame, Opener a popup.
type Window struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Parent   string `toml:"parent"`
	Opener   string `toml:"opener"`
	Location string `toml:"location" env_interpolation:"yes"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Host     *Host  `toml:"host"`
}

// Host scripts the parent side answering in a window.
type Host struct {
	Context      string         `toml:"context"`
	Relay        string         `toml:"relay" env_interpolation:"yes"`
	Navigate     *bool          `toml:"navigate"`
	ResizeFrames *bool          `toml:"resize_frames"`
	Props        map[string]any `toml:"props" env_interpolation:"yes"`
}

// Child describes the embedded component.
type Child struct {
	Window       string            `toml:"window"`
	Tag          string            `toml:"tag"`
	Metadata     map[string]string `toml:"metadata" env_interpolation:"yes"`
	MaxRedirects *int              `toml:"max_redirects"`
}

// Step is one scripted action.
type Step struct {
	Action   string         `toml:"action"`
	From     string         `toml:"from"`
	Props    map[string]any `toml:"props" env_interpolation:"yes"`
	Width    int            `toml:"width"`
	Height   int            `toml:"height"`
	URL      string         `toml:"url" env_interpolation:"yes"`
	Duration Duration       `toml:"duration"`
}

// IsHostAction reports whether the step is sent by a host.
func (s Step) IsHostAction() bool {
	return hostActions[s.Action]
}

// Window returns the window with id.
func (s *Scenario) Window(id string) (Window, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return Window{}, false
}

// Hosts returns the windows that run a host, in file order.
func (s *Scenario) Hosts() []Window {
	var out []Window
	for _, w := range s.Windows {
		if w.Host != nil {
			out = append(out, w)
		}
	}
	return out
}
