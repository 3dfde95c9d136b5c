// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/driver/null"
)

func newGPU(t *testing.T) (driver.Context, driver.GPU) {
	t.Helper()
	drv := &null.Driver{}
	ctx, err := drv.NewContext(&driver.ContextConfig{Size: gputypes.Extent3D{Width: 64, Height: 64}})
	if err != nil {
		t.Fatalf("null.Driver.NewContext failed:\n%#v", err)
	}
	gpu, err := drv.Open(ctx)
	if err != nil {
		t.Fatalf("null.Driver.Open failed:\n%#v", err)
	}
	t.Cleanup(func() {
		ctx.Destroy()
		drv.Close()
	})
	return ctx, gpu
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxPrerendered != 3 || cfg.ConstantBudget != 16384 {
		t.Fatalf("DefaultConfig\nhave %+v\nwant {MaxPrerendered:3 ConstantBudget:16384}", cfg)
	}
	cfg.Validate()
	if cfg != DefaultConfig() {
		t.Fatalf("Config.Validate: default changed\nhave %+v\nwant %+v", cfg, DefaultConfig())
	}
	cfg = Config{MaxPrerendered: 10, ConstantBudget: 1000}
	cfg.Validate()
	if cfg.MaxPrerendered != MaxPrerendered || cfg.ConstantBudget != 768 {
		t.Fatalf("Config.Validate\nhave %+v\nwant {MaxPrerendered:%d ConstantBudget:768}", cfg, MaxPrerendered)
	}
	cfg = Config{}
	cfg.Validate()
	if cfg.MaxPrerendered != 1 || cfg.ConstantBudget != MinConstantBudget {
		t.Fatalf("Config.Validate\nhave %+v\nwant {MaxPrerendered:1 ConstantBudget:%d}", cfg, MinConstantBudget)
	}
}

func TestCapabilities(t *testing.T) {
	ctx, gpu := newGPU(t)
	wg := map[string][3]int{"sim": {128, 1, 1}, "huge": {1 << 20, 1, 1}}
	caps := NewCapabilities(ctx, gpu, true, wg)
	wg["sim"] = [3]int{1, 1, 1}

	if caps.Backend != driver.Null {
		t.Fatalf("Capabilities.Backend\nhave %v\nwant %v", caps.Backend, driver.Null)
	}
	if caps.Info != gpu.Info() || caps.Limits != gpu.Limits() {
		t.Fatal("NewCapabilities: GPU queries not recorded")
	}
	if caps.Flags&driver.FlagHeadless == 0 || caps.Flags&driver.FlagDebug != 0 {
		t.Fatalf("Capabilities.Flags\nhave %b\nwant FlagHeadless|FlagRobust", caps.Flags)
	}
	if !caps.Highp() {
		t.Fatal("Capabilities.Highp: unexpected false")
	}
	if sz := caps.WorkgroupSize("sim", [3]int{64, 1, 1}); sz != [3]int{128, 1, 1} {
		t.Fatalf("Capabilities.WorkgroupSize(\"sim\")\nhave %v\nwant [128 1 1]", sz)
	}
	if sz := caps.WorkgroupSize("none", [3]int{64, 2, 1}); sz != [3]int{64, 2, 1} {
		t.Fatalf("Capabilities.WorkgroupSize(\"none\")\nhave %v\nwant [64 2 1]", sz)
	}
	if sz := caps.WorkgroupSize("huge", [3]int{}); sz[0] != caps.Limits.MaxDispatch[0] {
		t.Fatalf("Capabilities.WorkgroupSize(\"huge\")\nhave %v\nwant [%d 1 1]", sz, caps.Limits.MaxDispatch[0])
	}
	if n := caps.ConstantRange(1 << 30); n != int(caps.Limits.MaxConstantRange) {
		t.Fatalf("Capabilities.ConstantRange\nhave %d\nwant %d", n, caps.Limits.MaxConstantRange)
	}
	if n := caps.ConstantRange(4096); n != 4096 {
		t.Fatalf("Capabilities.ConstantRange\nhave %d\nwant 4096", n)
	}
}
