// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"github.com/gviegas/gfxbench/result"
	"github.com/gviegas/gfxbench/wsi"
)

// InputState is the state of the keyboard and pointer.
type InputState struct {
	Keys    [wsi.MaxKey]bool
	Buttons [wsi.MaxButton]bool
	X, Y    int
}

// InputComponent drains the runner's message queue once
// per frame.
// It keeps the state of the current and previous frames,
// from which key and button transitions are derived.
// Pressing Esc cancels the run.
type InputComponent struct {
	queue   *wsi.Queue
	cur     InputState
	prev    InputState
	width   int
	height  int
	resized bool
}

// Name implements Component.
func (c *InputComponent) Name() string { return NameInput }

// Init implements Component.
func (c *InputComponent) Init(r *Runner) error {
	d := r.Descriptor()
	*c = InputComponent{
		queue:  r.Queue(),
		width:  d.Env.Width,
		height: d.Env.Height,
	}
	return nil
}

// BeginFrame implements Component.
func (c *InputComponent) BeginFrame(r *Runner) {
	c.prev = c.cur
	c.resized = false
	for {
		m, ok := c.queue.PopFront()
		if !ok {
			break
		}
		c.handle(m)
	}
	if c.KeyPressed(wsi.KeyEsc) {
		r.Cancel()
	}
}

func (c *InputComponent) handle(m wsi.Message) {
	switch m.Type {
	case wsi.MsgKey:
		if m.Arg1 >= 0 && m.Arg1 < int(wsi.MaxKey) {
			c.cur.Keys[m.Arg1] = m.Arg2 != 0
		}
	case wsi.MsgMouseMove:
		c.cur.X, c.cur.Y = m.Arg1, m.Arg2
	case wsi.MsgMouseButton:
		if m.Arg1 >= 0 && m.Arg1 < wsi.MaxButton {
			c.cur.Buttons[m.Arg1] = m.Arg2 != 0
		}
	case wsi.MsgResize:
		c.width, c.height = m.Arg1, m.Arg2
		c.resized = true
	}
}

// AfterRender implements Component.
func (c *InputComponent) AfterRender(*Runner) {}

// EndFrame implements Component.
func (c *InputComponent) EndFrame(*Runner) {}

// CreateResult implements Component.
func (c *InputComponent) CreateResult(*Runner, *result.Group) {}

// Close implements Component.
func (c *InputComponent) Close() {}

// State returns the state of the current frame.
func (c *InputComponent) State() *InputState { return &c.cur }

// KeyDown returns whether key is down.
func (c *InputComponent) KeyDown(key wsi.Key) bool { return c.cur.Keys[key] }

// KeyPressed returns whether key went down this frame.
func (c *InputComponent) KeyPressed(key wsi.Key) bool {
	return c.cur.Keys[key] && !c.prev.Keys[key]
}

// KeyReleased returns whether key went up this frame.
func (c *InputComponent) KeyReleased(key wsi.Key) bool {
	return !c.cur.Keys[key] && c.prev.Keys[key]
}

// ButtonDown returns whether btn is down.
func (c *InputComponent) ButtonDown(btn wsi.Button) bool { return c.cur.Buttons[btn] }

// ButtonPressed returns whether btn went down this frame.
func (c *InputComponent) ButtonPressed(btn wsi.Button) bool {
	return c.cur.Buttons[btn] && !c.prev.Buttons[btn]
}

// ButtonReleased returns whether btn went up this frame.
func (c *InputComponent) ButtonReleased(btn wsi.Button) bool {
	return !c.cur.Buttons[btn] && c.prev.Buttons[btn]
}

// Pointer returns the pointer position.
func (c *InputComponent) Pointer() (x, y int) { return c.cur.X, c.cur.Y }

// PointerDelta returns the pointer motion this frame.
func (c *InputComponent) PointerDelta() (dx, dy int) {
	return c.cur.X - c.prev.X, c.cur.Y - c.prev.Y
}

// Size returns the last surface size reported by the
// window system.
func (c *InputComponent) Size() (width, height int) { return c.width, c.height }

// Resized returns whether a resize was reported this
// frame.
func (c *InputComponent) Resized() bool { return c.resized }
