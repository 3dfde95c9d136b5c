// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"testing"

	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/driver/null"
)

func TestRenderer(t *testing.T) {
	_, gpu := newGPU(t)
	rend, err := NewRenderer(gpu, 6)
	if err != nil {
		t.Fatalf("NewRenderer failed:\n%#v", err)
	}
	if rend.Len() != 6 {
		t.Fatalf("Renderer.Len\nhave %d\nwant 6", rend.Len())
	}
	for i := range rend.Len() {
		if len(rend.ch[i]) != 1 {
			t.Fatalf("NewRenderer: buffer %d should be available", i)
		}
		if rend.Recording(i) {
			t.Fatalf("NewRenderer: buffer %d should not have begun", i)
		}
	}

	rot, _ := NewRotation(2, 3)
	for range 10 {
		for _, idx := range rot.Indices() {
			cb, err := rend.Begin(idx)
			if err != nil {
				t.Fatalf("Renderer.Begin(%d) failed:\n%#v", idx, err)
			}
			if !rend.Recording(idx) || !cb.IsRecording() {
				t.Fatalf("Renderer.Begin(%d): buffer should be recording", idx)
			}
			if again, _ := rend.Begin(idx); again != cb {
				t.Fatalf("Renderer.Begin(%d): second call returned another buffer", idx)
			}
			cb.BeginPass(driver.ClearValue{})
			cb.Draw(6, 1, 0, 0)
			cb.EndPass()
		}
		for _, idx := range rot.Indices() {
			if err := rend.Submit(idx); err != nil {
				t.Fatalf("Renderer.Submit(%d) failed:\n%#v", idx, err)
			}
			if rend.Recording(idx) {
				t.Fatalf("Renderer.Submit(%d): buffer still recording", idx)
			}
		}
		rot.Next()
	}
	if err := rend.WaitFinish(); err != nil {
		t.Fatalf("Renderer.WaitFinish failed:\n%#v", err)
	}
	if s := gpu.(*null.GPU).Stats(); s.Commits != 20 || s.Draws != 20 {
		t.Fatalf("Renderer: GPU stats\nhave %+v\nwant 20 commits, 20 draws", s)
	}
	if err := rend.Submit(0); err == nil {
		t.Fatal("Renderer.Submit: buffer not recording\nhave nil\nwant non-nil")
	}

	// Recording buffers are reset by WaitFinish.
	rend.Begin(3)
	if err := rend.WaitFinish(); err != nil || rend.Recording(3) {
		t.Fatalf("Renderer.WaitFinish: %v, recording=%t", err, rend.Recording(3))
	}

	rend.Destroy()
	if rend.cb != nil || rend.ch != nil {
		t.Fatal("Renderer.Destroy: state not cleared")
	}
}

func TestRendererError(t *testing.T) {
	_, gpu := newGPU(t)
	rend, _ := NewRenderer(gpu, 1)
	defer rend.Destroy()

	// An invalid command stream fails at End.
	cb, _ := rend.Begin(0)
	cb.Draw(3, 1, 0, 0)
	if err := rend.Submit(0); err == nil {
		t.Fatal("Renderer.Submit: invalid commands\nhave nil\nwant non-nil")
	}
	// The buffer must still be usable.
	if _, err := rend.Begin(0); err != nil {
		t.Fatalf("Renderer.Begin after failed Submit:\n%#v", err)
	}
	if err := rend.Submit(0); err != nil {
		t.Fatalf("Renderer.Submit: empty buffer\n%#v", err)
	}
	if _, err := NewRenderer(gpu, 0); !errors.Is(err, ErrRotation) {
		t.Fatalf("NewRenderer(gpu, 0)\nhave %v\nwant %v", err, ErrRotation)
	}
}
