// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gviegas/gfxbench/bench"
	"github.com/gviegas/gfxbench/scene"
	"github.com/gviegas/gfxbench/wsi"
)

// Terminals report key presses only. A press is
// followed by a release after this long.
const keyRelease = 150 * time.Millisecond

// terminal shows the progress of a run and forwards
// keyboard and mouse events to the runner's queue.
type terminal struct {
	screen   tcell.Screen
	handler  wsi.Handler
	interval time.Duration
	release  time.Duration
	buttons  tcell.ButtonMask

	mu     sync.Mutex
	last   time.Time
	status string
	// Terminal size of the first resize event, in cells,
	// and the surface size of the run. Later resizes scale
	// the surface by the terminal's change in size.
	cells   [2]int
	surface [2]int
}

func newTerminal(screen tcell.Screen, queue *wsi.Queue, interval time.Duration) (*terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.HideCursor()
	screen.Clear()
	screen.Show()
	return &terminal{
		screen:   screen,
		handler:  wsi.Handler{Queue: queue},
		interval: interval,
		release:  keyRelease,
	}, nil
}

// poll handles events until the screen is finalized.
func (t *terminal) poll() error {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}
		t.handle(ev)
	}
}

var keymap = map[tcell.Key]wsi.Key{
	tcell.KeyEscape:     wsi.KeyEsc,
	tcell.KeyCtrlC:      wsi.KeyEsc,
	tcell.KeyEnter:      wsi.KeyReturn,
	tcell.KeyTab:        wsi.KeyTab,
	tcell.KeyBackspace:  wsi.KeyBackspace,
	tcell.KeyBackspace2: wsi.KeyBackspace,
	tcell.KeyUp:         wsi.KeyUp,
	tcell.KeyDown:       wsi.KeyDown,
	tcell.KeyLeft:       wsi.KeyLeft,
	tcell.KeyRight:      wsi.KeyRight,
	tcell.KeyInsert:     wsi.KeyInsert,
	tcell.KeyDelete:     wsi.KeyDelete,
	tcell.KeyHome:       wsi.KeyHome,
	tcell.KeyEnd:        wsi.KeyEnd,
}

// translateKey returns the wsi key of ev.
// Ctrl+C maps to Esc, which cancels the run.
func translateKey(ev *tcell.EventKey) (wsi.Key, wsi.Modifier) {
	var mods wsi.Modifier
	m := ev.Modifiers()
	if m&tcell.ModShift != 0 {
		mods |= wsi.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= wsi.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= wsi.ModAlt
	}
	if ev.Key() == tcell.KeyRune {
		k, shift := wsi.KeyFromRune(ev.Rune())
		return k, mods | shift
	}
	if k, ok := keymap[ev.Key()]; ok {
		return k, mods
	}
	return wsi.KeyUnknown, mods
}

func (t *terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		k, mods := translateKey(ev)
		if k == wsi.KeyUnknown {
			return
		}
		t.handler.KeyboardKey(k, true, mods)
		time.AfterFunc(t.release, func() { t.handler.KeyboardKey(k, false, mods) })
	case *tcell.EventMouse:
		x, y := ev.Position()
		t.handler.PointerMotion(x, y)
		b := ev.Buttons()
		for i, m := range [...]tcell.ButtonMask{tcell.Button1, tcell.Button2, tcell.Button3} {
			if down := b&m != 0; down != (t.buttons&m != 0) {
				t.handler.PointerButton(wsi.Button(i), down, x, y)
			}
		}
		t.buttons = b
	case *tcell.EventResize:
		t.screen.Sync()
		t.resize(ev.Size())
	}
}

// resize pushes a resize message scaling the surface by
// the change in the terminal size.
func (t *terminal) resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case cols <= 0 || rows <= 0:
		return
	case t.cells == [2]int{}:
		t.cells = [2]int{cols, rows}
		return
	case t.surface == [2]int{}:
		return
	}
	w := max(t.surface[0]*cols/t.cells[0], 1)
	h := max(t.surface[1]*rows/t.cells[1], 1)
	t.handler.WindowResize(nil, w, h)
}

// update redraws the status line if the update interval
// has elapsed.
func (t *terminal) update(r *bench.Runner) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.last) < t.interval {
		return
	}
	t.last = now
	if t.surface == ([2]int{}) {
		env := &r.Descriptor().Env
		t.surface = [2]int{env.Width, env.Height}
	}
	tc := r.Time()
	t.status = fmt.Sprintf("%s | frame %d | %d ms | %.1f fps | esc: cancel",
		r.Descriptor().TestID, tc.Frames(), tc.AnimationTime(), tc.FPS())
	t.screen.Clear()
	for i, c := range []rune(t.status) {
		t.screen.SetContent(i, 0, c, nil, tcell.StyleDefault.Bold(true))
	}
	t.screen.Show()
}

// Status returns the last status line.
func (t *terminal) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *terminal) close() { t.screen.Fini() }

// interactiveTest updates a terminal once per frame.
type interactiveTest struct {
	*scene.ParticleTest
	ui *terminal
}

func (t interactiveTest) Animate(ctx context.Context, r *bench.Runner) error {
	t.ui.update(r)
	return t.ParticleTest.Animate(ctx, r)
}
