package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atlanticdynamic/framelink/internal/logging"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"google.golang.org/protobuf/types/known/structpb"
)

// Validate checks the whole scenario and reports every problem it finds.
func (s *Scenario) Validate() error {
	if s.Version == "" {
		s.Version = VersionLatest
	}
	if s.Version != VersionLatest {
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigVer, s.Version)
	}

	errz := []error{}
	errz = append(errz, s.Logging.validate())
	errz = append(errz, s.Timeouts.validate())
	errz = append(errz, s.validateWindows()...)
	errz = append(errz, s.validateChild()...)
	for i, step := range s.Steps {
		if err := s.validateStep(step); err != nil {
			errz = append(errz, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return errors.Join(errz...)
}

func (l Logging) validate() error {
	errz := []error{}
	if _, err := logging.ParseLevel(l.Level); err != nil {
		errz = append(errz, err)
	}
	switch strings.ToLower(l.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errz = append(errz, fmt.Errorf("%w: %q", logging.ErrUnknownFormat, l.Format))
	}
	return errors.Join(errz...)
}

func (t Timeouts) validate() error {
	errz := []error{}
	for name, d := range map[string]Duration{
		"request":           t.Request,
		"redirect_deferral": t.RedirectDeferral,
		"run":               t.Run,
	} {
		if d < 0 {
			errz = append(errz, fmt.Errorf("%w: %s timeout is negative", ErrInvalidDuration, name))
		}
	}
	return errors.Join(errz...)
}

func (s *Scenario) validateWindows() []error {
	errz := []error{}
	if len(s.Windows) == 0 {
		return append(errz, fmt.Errorf("%w: no windows defined", ErrWindow))
	}

	ids := make(map[string]bool, len(s.Windows))
	for _, w := range s.Windows {
		if w.ID == "" {
			errz = append(errz, fmt.Errorf("%w: window has an empty id", ErrWindow))
			continue
		}
		if ids[w.ID] {
			errz = append(errz, fmt.Errorf("%w: duplicate window id: %s", ErrWindow, w.ID))
		}
		ids[w.ID] = true
	}

	frameNames := map[string]bool{}
	for _, w := range s.Windows {
		if w.ID == "" {
			continue
		}
		if w.Parent != "" && w.Opener != "" {
			errz = append(errz, fmt.Errorf("%w: %s has both a parent and an opener", ErrWindow, w.ID))
		}
		for _, ref := range []string{w.Parent, w.Opener} {
			if ref != "" && !ids[ref] {
				errz = append(errz, fmt.Errorf("%w: %s references unknown window %s", ErrWindow, w.ID, ref))
			}
		}
		if w.Parent != "" {
			key := w.Parent + "/" + frameName(w)
			if frameNames[key] {
				errz = append(errz, fmt.Errorf("%w: frame name %q used twice in %s", ErrWindow, frameName(w), w.Parent))
			}
			frameNames[key] = true
		}
		if w.Width < 0 || w.Height < 0 {
			errz = append(errz, fmt.Errorf("%w: %s has a negative size", ErrWindow, w.ID))
		}
		if w.Host != nil {
			if err := w.Host.validate(); err != nil {
				errz = append(errz, fmt.Errorf("window %s: %w", w.ID, err))
			}
		}
	}

	if cycle := s.parentCycle(); cycle != "" {
		errz = append(errz, fmt.Errorf("%w: parent cycle through %s", ErrWindow, cycle))
	}
	return errz
}

// parentCycle returns a window id on a parent or opener cycle, if any.
func (s *Scenario) parentCycle() string {
	up := make(map[string]string, len(s.Windows))
	for _, w := range s.Windows {
		switch {
		case w.Parent != "":
			up[w.ID] = w.Parent
		case w.Opener != "":
			up[w.ID] = w.Opener
		}
	}
	for start := range up {
		seen := map[string]bool{start: true}
		for cur := up[start]; cur != ""; cur = up[cur] {
			if seen[cur] {
				return cur
			}
			seen[cur] = true
		}
	}
	return ""
}

// frameName is the name a parent finds the window by.
func frameName(w Window) string {
	if w.Name != "" {
		return w.Name
	}
	return w.ID
}

func (h *Host) validate() error {
	errz := []error{}
	if h.Context != "" {
		if _, err := protocol.ParseDisplayContext(h.Context); err != nil {
			errz = append(errz, fmt.Errorf("%w: %w", ErrHost, err))
		}
	}
	if err := validateProps(h.Props); err != nil {
		errz = append(errz, fmt.Errorf("%w: %w", ErrHost, err))
	}
	return errors.Join(errz...)
}

func (s *Scenario) validateChild() []error {
	errz := []error{}
	c := s.Child
	if strings.TrimSpace(c.Tag) == "" {
		errz = append(errz, fmt.Errorf("%w: tag is required", ErrChild))
	}
	if c.MaxRedirects != nil && *c.MaxRedirects < 0 {
		errz = append(errz, fmt.Errorf("%w: max_redirects is negative", ErrChild))
	}

	w, ok := s.Window(c.Window)
	switch {
	case c.Window == "":
		errz = append(errz, fmt.Errorf("%w: window is required", ErrChild))
	case !ok:
		errz = append(errz, fmt.Errorf("%w: unknown window %s", ErrChild, c.Window))
	case w.Host != nil:
		errz = append(errz, fmt.Errorf("%w: window %s already runs a host", ErrChild, c.Window))
	}
	return errz
}

func (s *Scenario) validateStep(step Step) error {
	if !hostActions[step.Action] && !childActions[step.Action] {
		return fmt.Errorf("%w: unknown action %q", ErrStep, step.Action)
	}

	if step.IsHostAction() {
		w, ok := s.Window(step.From)
		if !ok || w.Host == nil {
			return fmt.Errorf("%w: %s needs a host window in from, got %q", ErrStep, step.Action, step.From)
		}
	}

	switch step.Action {
	case ActionProps:
		if len(step.Props) == 0 {
			return fmt.Errorf("%w: props step without props", ErrStep)
		}
		if err := validateProps(step.Props); err != nil {
			return fmt.Errorf("%w: %w", ErrStep, err)
		}
	case ActionResize, ActionHostResize:
		if step.Width < 0 || step.Height < 0 {
			return fmt.Errorf("%w: negative size", ErrStep)
		}
	case ActionRedirect:
		if strings.TrimSpace(step.URL) == "" {
			return fmt.Errorf("%w: redirect without url", ErrStep)
		}
	case ActionWait:
		if step.Duration <= 0 {
			return fmt.Errorf("%w: wait needs a positive duration", ErrStep)
		}
	}
	return nil
}

// validateProps checks that props can cross the message bus.
func validateProps(props map[string]any) error {
	if len(props) == 0 {
		return nil
	}
	if _, err := structpb.NewStruct(props); err != nil {
		return fmt.Errorf("props can not be sent: %w", err)
	}
	return nil
}
