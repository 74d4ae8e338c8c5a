// Package tool implements the interactive map tools and the protocol by
// which they attach to a canvas.
//
// A tool is Inactive until Activate subscribes it to canvas gestures. Every
// subscription taken in Activate is released by the matching Deactivate, which
// also clears transient state and undoes chrome changes. Tools never learn
// about each other: several may react to the same gesture.
package tool

import (
	"errors"
	"fmt"
	"image/color"

	"go.uber.org/zap"

	"map-viewer/internal/event"
	"map-viewer/internal/panel"
	"map-viewer/internal/render"
	"map-viewer/internal/stack"
	"map-viewer/internal/transform"
	"map-viewer/pkg/colorutil"
	"map-viewer/pkg/maperr"
)

// Host is the canvas as seen by a tool.
type Host interface {
	Transform() *transform.Transform
	Bus() *event.Bus
	Layers() *stack.Stack
	Chrome() Chrome
	// RequestRedraw asks for the tool overlays to be repainted.
	RequestRedraw()
	Logger() *zap.Logger
}

// Chrome is the part of the window a tool may change while active.
type Chrome interface {
	AddPanel(p *panel.AttributePanel)
	RemovePanel(p *panel.AttributePanel)
}

// Tool is a pluggable interaction behaviour.
type Tool interface {
	Name() string
	Activate(h Host) error
	Deactivate() error
	Active() bool
	// Draw paints the tool overlay. It must not change tool state or emit
	// events.
	Draw(r render.Renderer, s *render.Surface)
}

// Styles configures tool overlays. It is passed to each tool at construction.
type Styles struct {
	Selection    render.Style
	SelectionBox render.Style
	Measure      render.Style
	// PickRadius is the point select tolerance in pixels.
	PickRadius float64
}

// DefaultStyles returns the built-in overlay styles.
func DefaultStyles() Styles {
	return Styles{
		Selection: render.Style{
			Stroke: colorutil.Yellow, Fill: color.RGBA{R: 0xff, G: 0xff, A: 0x60},
			Width: 3, Radius: 6,
		},
		SelectionBox: render.Style{Stroke: colorutil.Cyan, Width: 1},
		Measure: render.Style{
			Stroke: colorutil.Magenta, Fill: colorutil.Magenta,
			Width: 2, Radius: 4,
		},
		PickRadius: 5,
	}
}

// lifecycle tracks the activation state and subscriptions of one tool.
type lifecycle struct {
	name    string
	host    Host
	logger  *zap.Logger
	handles []event.Handle
	active  bool
}

func (lc *lifecycle) Name() string { return lc.name }

func (lc *lifecycle) Active() bool { return lc.active }

func (lc *lifecycle) begin(h Host) error {
	if lc.active {
		return &maperr.InvalidStateError{Op: "activate " + lc.name, Reason: "tool is already active"}
	}
	if h == nil {
		return fmt.Errorf("activate %s: nil host", lc.name)
	}
	lc.host = h
	lc.logger = h.Logger()
	if lc.logger == nil {
		lc.logger = zap.NewNop()
	}
	lc.logger = lc.logger.Named(lc.name)
	lc.active = true
	return nil
}

// subscribe registers fn and records the handle for release in end.
func (lc *lifecycle) subscribe(kind event.Kind, fn event.Handler) error {
	h, err := lc.host.Bus().Subscribe(kind, lc.name, fn)
	if err != nil {
		return err
	}
	lc.handles = append(lc.handles, h)
	return nil
}

// subscribeAll registers every handler or none.
func (lc *lifecycle) subscribeAll(subs map[event.Kind]event.Handler) error {
	for _, kind := range sortedKinds(subs) {
		if err := lc.subscribe(kind, subs[kind]); err != nil {
			return errors.Join(err, lc.end())
		}
	}
	return nil
}

// end releases every handle. All handles are attempted even if some fail.
func (lc *lifecycle) end() error {
	if !lc.active {
		return &maperr.InvalidStateError{Op: "deactivate " + lc.name, Reason: "tool is not active"}
	}
	var errs []error
	for _, h := range lc.handles {
		if err := lc.host.Bus().Unsubscribe(h); err != nil {
			errs = append(errs, err)
		}
	}
	lc.handles = nil
	lc.active = false
	lc.host = nil
	return errors.Join(errs...)
}

func (lc *lifecycle) emit(ev event.Event) {
	ev.Source = lc.name
	lc.host.Bus().Emit(ev)
}

func sortedKinds(subs map[event.Kind]event.Handler) []event.Kind {
	var out []event.Kind
	for k := event.Kind(0); k.Valid(); k++ {
		if _, ok := subs[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
