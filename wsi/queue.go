// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"sync"
)

// MsgType is the type of a Message.
type MsgType int

// Message types.
const (
	// Arg1 is the Key, Arg2 is 1 if pressed and 0
	// if released, Flags holds the Modifier mask.
	MsgKey MsgType = 1 + iota
	// Arg1 and Arg2 are the pointer's x and y.
	MsgMouseMove
	// Arg1 is the Button, Arg2 is 1 if pressed and
	// 0 if released.
	MsgMouseButton
	// Arg1 and Arg2 are the new width and height.
	MsgResize
)

func (t MsgType) String() string {
	switch t {
	case MsgKey:
		return "key"
	case MsgMouseMove:
		return "mouse-move"
	case MsgMouseButton:
		return "mouse-button"
	case MsgResize:
		return "resize"
	}
	return "unknown"
}

// Message is an input event.
type Message struct {
	Type  MsgType
	Arg1  int
	Arg2  int
	Flags int
}

// Queue is a FIFO of Messages.
// It is safe for concurrent use. The zero value is an
// empty queue ready to use.
type Queue struct {
	mu   sync.Mutex
	msgs []Message
	head int
}

// Push appends msg to the back of q.
func (q *Queue) Push(msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	// Reclaim consumed space before growing.
	if q.head > 0 && len(q.msgs) == cap(q.msgs) {
		n := copy(q.msgs, q.msgs[q.head:])
		q.msgs = q.msgs[:n]
		q.head = 0
	}
	q.msgs = append(q.msgs, msg)
}

// HasNext returns whether q is not empty.
func (q *Queue) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head < len(q.msgs)
}

// PopFront removes and returns the front of q.
// It returns false if q is empty.
func (q *Queue) PopFront() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.msgs) {
		return Message{}, false
	}
	msg := q.msgs[q.head]
	q.head++
	if q.head == len(q.msgs) {
		q.msgs = q.msgs[:0]
		q.head = 0
	}
	return msg, true
}

// Len returns the number of messages in q.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs) - q.head
}

// Clear removes all messages from q.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = q.msgs[:0]
	q.head = 0
}
