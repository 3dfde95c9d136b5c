// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines a set of interfaces encompassing
// the graphics functionality that benchmark runs need.
// Concrete graphics APIs are implemented by separate
// packages that register a Driver on init.
package driver

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gviegas/gfxbench/internal/logx"
)

// Backend identifies a graphics API.
type Backend int

// Backends.
const (
	Null Backend = iota
	GL
	GLES
	Vulkan
	D3D11
	D3D12
	Metal
)

var backendNames = [...]string{
	Null:   "null",
	GL:     "gl",
	GLES:   "gles",
	Vulkan: "vulkan",
	D3D11:  "d3d11",
	D3D12:  "d3d12",
	Metal:  "metal",
}

func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return backendNames[b]
}

// ParseBackend returns the Backend named s.
// It is case insensitive.
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(s)
	for i, name := range backendNames {
		if name == s {
			return Backend(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBackend, s)
}

// Driver is the interface that provides methods for
// loading and unloading an underlying implementation.
type Driver interface {
	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Backend returns the graphics API that the
	// driver implements.
	Backend() Backend

	// NewContext creates a graphics context.
	// The context must be destroyed before the driver
	// is closed.
	NewContext(cfg *ContextConfig) (Context, error)

	// Open initializes the driver using ctx.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same GPU instance.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open(ctx Context) (GPU, error)

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	Close()
}

// ErrBackend means that a backend name is not known.
var ErrBackend = errors.New("driver: unknown backend")

// ErrNoDriver means that no registered driver matched
// the selection criteria.
var ErrNoDriver = errors.New("driver: driver not found")

// ErrContext means that a graphics context could not
// be created.
var ErrContext = errors.New("driver: context creation failed")

// ErrNoDevice means that no suitable device could be
// found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrFatal means that the driver is in an unrecoverable
// state. Upon encountering such an error, the application
// must destroy everything that it created using the
// driver's GPU and then call the Close method.
var ErrFatal = errors.New("driver: fatal error")

// Drivers returns the registered Drivers.
// Client code imports specific driver packages, and then
// call this function. As such, drivers that do not
// register themselves on init will not be considered
// for selection.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver.
// Driver implementations are expected to call Register
// exactly once, from an init function.
// If a driver with the same name has already been
// registered, it will be replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			logx.L().Warn("driver replaced", "name", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	logx.L().Debug("driver registered", "name", drv.Name(), "backend", drv.Backend())
}

// Select returns the first registered Driver that
// implements b and whose name contains name.
// The name match is case insensitive. If name is the
// empty string, then any driver implementing b is
// selected.
func Select(b Backend, name string) (Driver, error) {
	name = strings.ToLower(name)
	for _, drv := range Drivers() {
		if drv.Backend() != b {
			continue
		}
		if strings.Contains(strings.ToLower(drv.Name()), name) {
			return drv, nil
		}
	}
	return nil, fmt.Errorf("%w: backend %v, name %q", ErrNoDriver, b, name)
}

var (
	mu      sync.Mutex
	drivers = make([]Driver, 0, 1)
)
