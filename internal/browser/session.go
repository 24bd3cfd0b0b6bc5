// Package browser bridges the core to a live Chromium page over the
// DevTools protocol via chromedp. It collects DOM snapshots for the grid
// analyzer, streams the injected agent's pointer/mutation/viewport events
// back to Go, and drives the agent's overlay primitives.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"weekslot/internal/config"
	"weekslot/internal/drag"
	"weekslot/internal/grid"
	"weekslot/internal/hostdom"
	appLog "weekslot/internal/log"
	"weekslot/internal/selection"
)

const bindingName = "__weekslotPost"

// Command is a panel action forwarded from the injected UI.
type Command string

const (
	CmdToggle Command = "toggle"
	CmdCopy   Command = "copy"
	CmdExport Command = "export"
	CmdClear  Command = "clear"
)

// agentEvent is the wire form of one message posted by the agent.
type agentEvent struct {
	Type      string  `json:"type"`
	Kind      string  `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	OverPanel bool    `json:"overPanel"`
	Cmd       string  `json:"cmd"`
}

// Session is one attached browser page. It implements drag.Source and
// drag.Surface, and feeds viewsync through the OnMutation/OnViewportChange
// hooks.
type Session struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc

	cfg config.BrowserConfig

	markerAttr       string
	hourMarkSelector string

	mu          sync.Mutex
	subscribers map[int]func(drag.Event)
	nextSubID   int

	onMutation func()
	onViewport func()

	commands chan Command
	rawCh    chan string
	done     chan struct{}

	overlaySeq atomic.Int64
}

// Connect attaches to (or launches) a browser and injects the agent.
// The returned Session is live: agent events start flowing immediately.
func Connect(parentCtx context.Context, cfg config.BrowserConfig, gridCfg config.GridConfig) (*Session, error) {
	s := &Session{
		cfg:              cfg,
		markerAttr:       gridCfg.MarkerAttr,
		hourMarkSelector: gridCfg.HourMarkSelector,
		subscribers:      make(map[int]func(drag.Event)),
		commands:         make(chan Command, 16),
		rawCh:            make(chan string, 256),
		done:             make(chan struct{}),
	}

	var allocCtx context.Context
	if cfg.AttachWS != "" {
		allocCtx, s.cancelAlloc = chromedp.NewRemoteAllocator(parentCtx, cfg.AttachWS)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
		)
		allocCtx, s.cancelAlloc = chromedp.NewExecAllocator(parentCtx, opts...)
	}
	s.ctx, s.cancelCtx = chromedp.NewContext(allocCtx)

	// The binding callback must not block; raw payloads go through a
	// buffered channel to the dispatch goroutine.
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if bc, ok := ev.(*runtime.EventBindingCalled); ok && bc.Name == bindingName {
			select {
			case s.rawCh <- bc.Payload:
			default:
				appLog.Warn("browser: event channel full, dropping agent event")
			}
		}
	})

	tasks := chromedp.Tasks{
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Survive host-page navigations within the same tab.
			_, err := page.AddScriptToEvaluateOnNewDocument(agentJS).Do(ctx)
			return err
		}),
	}
	if cfg.PageURL != "" {
		tasks = append(tasks, chromedp.Navigate(cfg.PageURL))
	}
	tasks = append(tasks, chromedp.Evaluate(agentJS, nil))

	if err := chromedp.Run(s.ctx, tasks); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	go s.dispatchLoop()

	appLog.Info("browser: attached", "attach_ws", cfg.AttachWS != "", "url", cfg.PageURL)
	return s, nil
}

// SetSyncHooks wires the debounced viewsync triggers. Must be set before
// the page starts mutating to avoid missed triggers mattering; a missed
// trigger is recovered by the periodic safety resync anyway.
func (s *Session) SetSyncHooks(onMutation, onViewport func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutation = onMutation
	s.onViewport = onViewport
}

// Commands returns the panel command stream.
func (s *Session) Commands() <-chan Command {
	return s.commands
}

// Subscribe implements drag.Source.
func (s *Session) Subscribe(fn func(drag.Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) dispatchLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ctx.Done():
			return
		case payload := <-s.rawCh:
			s.dispatch(payload)
		}
	}
}

func (s *Session) dispatch(payload string) {
	var ev agentEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		appLog.Warn("browser: undecodable agent event", "err", err)
		return
	}

	switch ev.Type {
	case "pointer":
		kind, ok := pointerKind(ev.Kind)
		if !ok {
			return
		}
		s.mu.Lock()
		fns := make([]func(drag.Event), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			fns = append(fns, fn)
		}
		s.mu.Unlock()
		de := drag.Event{Kind: kind, X: ev.X, Y: ev.Y, OverPanel: ev.OverPanel}
		for _, fn := range fns {
			fn(de)
		}
	case "mutation":
		s.mu.Lock()
		fn := s.onMutation
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	case "viewport":
		s.mu.Lock()
		fn := s.onViewport
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	case "command":
		select {
		case s.commands <- Command(ev.Cmd):
		default:
			appLog.Warn("browser: command channel full, dropping", "cmd", ev.Cmd)
		}
	}
}

func pointerKind(kind string) (drag.EventKind, bool) {
	switch kind {
	case "down":
		return drag.PointerDown, true
	case "move":
		return drag.PointerMove, true
	case "up":
		return drag.PointerUp, true
	}
	return 0, false
}

// Snapshot captures the current host-page state for the analyzer. An error
// here is transient (navigation, agent not yet installed) and callers
// retry.
func (s *Session) Snapshot() (*hostdom.Snapshot, error) {
	expr := fmt.Sprintf("window.__weekslot.collect(%q, %q)", s.markerAttr, s.hourMarkSelector)
	var snap hostdom.Snapshot
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &snap)); err != nil {
		return nil, fmt.Errorf("browser: snapshot: %w", err)
	}
	snap.CapturedAt = time.Now()
	return &snap, nil
}

// SetActive shows or hides the capture layer and flips the host columns'
// pointer handling, paired save/restore on the agent side.
func (s *Session) SetActive(active bool) {
	s.eval(fmt.Sprintf("window.__weekslot.setActive(%t, %q)", active, s.markerAttr))
}

// RepositionGrid moves the capture layer onto the grid's current bounds.
func (s *Session) RepositionGrid(cols []grid.Column, gridTop, hourHeight float64) {
	if len(cols) == 0 {
		return
	}
	left := cols[0].Left
	right := cols[len(cols)-1].Right
	height := hourHeight * 24
	s.eval(fmt.Sprintf("window.__weekslot.positionGrid(%.2f, %.2f, %.2f, %.2f)",
		left, gridTop, right-left, height))
}

// ShowToast displays a transient notification in the page.
func (s *Session) ShowToast(msg string) {
	s.eval(fmt.Sprintf("window.__weekslot.toast(%q)", msg))
}

// ShowTemp implements drag.Surface.
func (s *Session) ShowTemp(col grid.Column, top, bottom float64) drag.TempOverlay {
	o := &overlay{s: s, id: s.overlaySeq.Add(1), col: col, temp: true}
	o.place(top, bottom)
	return o
}

// ShowSlot implements drag.Surface; the returned handle is the slot's
// owned selection.Overlay.
func (s *Session) ShowSlot(col grid.Column, top, bottom float64) selection.Overlay {
	o := &overlay{s: s, id: s.overlaySeq.Add(1), col: col}
	o.place(top, bottom)
	return o
}

func (s *Session) eval(expr string) {
	ctx, cancel := context.WithTimeout(s.ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, nil)); err != nil {
		appLog.Warn("browser: evaluate failed", "err", err)
	}
}

// Close tears the session down.
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}
