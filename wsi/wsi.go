// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wsi provides the window system boundary used
// by benchmark runs.
// Window systems deliver events on their own thread. The
// handlers in this package translate such events into
// Messages that are pushed to a Queue, which the render
// thread drains once per frame.
package wsi

// Window is the interface that defines a drawable window.
// The purpose of a window is to provide a surface into
// which a GPU can draw.
type Window interface {
	// Width returns the window's width.
	Width() int

	// Height returns the window's height.
	Height() int

	// Title returns the window's title.
	Title() string
}

// Modifier is the type of modifier flags.
type Modifier int

// Modifier flags.
const (
	ModCapsLock Modifier = 1 << iota
	ModShift
	ModCtrl
	ModAlt
)

// Button is the type of pointer buttons.
type Button int

// Pointer buttons.
const (
	BtnLeft Button = iota
	BtnRight
	BtnMiddle

	// The number of tracked buttons.
	MaxButton = 3
)

// WindowHandler is the interface that defines the methods
// for handling window events.
type WindowHandler interface {
	// WindowClose is called when a window is closed.
	WindowClose(win Window)

	// WindowResize is called when a window is resized.
	WindowResize(win Window, newWidth, newHeight int)
}

// KeyboardHandler is the interface that defines the methods
// for handling keyboard events.
type KeyboardHandler interface {
	// KeyboardKey is called when a key is pressed/released.
	KeyboardKey(key Key, pressed bool, modMask Modifier)
}

// PointerHandler is the interface that defines the methods
// for handling pointer events.
type PointerHandler interface {
	// PointerMotion is called when the pointer changes position.
	PointerMotion(newX, newY int)

	// PointerButton is called when a button is pressed/released.
	PointerButton(btn Button, pressed bool, x, y int)
}

// Handler implements WindowHandler, KeyboardHandler and
// PointerHandler by pushing Messages to a Queue.
// It is safe to use from any goroutine.
type Handler struct {
	Queue *Queue

	// Closed is called, if not nil, when a window is closed.
	// No message is pushed for this event.
	Closed func()
}

// WindowClose implements WindowHandler.
func (h *Handler) WindowClose(Window) {
	if h.Closed != nil {
		h.Closed()
	}
}

// WindowResize implements WindowHandler.
func (h *Handler) WindowResize(_ Window, newWidth, newHeight int) {
	h.Queue.Push(Message{Type: MsgResize, Arg1: newWidth, Arg2: newHeight})
}

// KeyboardKey implements KeyboardHandler.
// Keys outside of the [0, MaxKey) range are dropped.
func (h *Handler) KeyboardKey(key Key, pressed bool, modMask Modifier) {
	if key < 0 || key >= MaxKey {
		return
	}
	h.Queue.Push(Message{Type: MsgKey, Arg1: int(key), Arg2: b2i(pressed), Flags: int(modMask)})
}

// PointerMotion implements PointerHandler.
func (h *Handler) PointerMotion(newX, newY int) {
	h.Queue.Push(Message{Type: MsgMouseMove, Arg1: newX, Arg2: newY})
}

// PointerButton implements PointerHandler.
// The pointer position is pushed as a separate motion
// message preceding the button message.
func (h *Handler) PointerButton(btn Button, pressed bool, x, y int) {
	if btn < 0 || btn >= MaxButton {
		return
	}
	h.Queue.Push(Message{Type: MsgMouseMove, Arg1: x, Arg2: y})
	h.Queue.Push(Message{Type: MsgMouseButton, Arg1: int(btn), Arg2: b2i(pressed)})
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
