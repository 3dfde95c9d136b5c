// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// GPU is the main interface to an underlying driver
// implementation.
// It is used to create other types and to execute commands.
// A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// Commit commits a batch of command buffers to the GPU
	// for execution.
	// The order of command buffers in wk.Work is meaningful.
	// If Commit succeeds, wk is sent to ch when all commands
	// complete execution, with wk.Err indicating whether
	// execution succeeded. Command buffers in wk.Work cannot
	// be used for recording until then.
	Commit(wk *WorkItem, ch chan<- *WorkItem) error

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// NewBuffer creates a new host-visible buffer.
	NewBuffer(size int64, usg Usage) (Buffer, error)

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits

	// Features returns the optional features that the
	// implementation supports.
	Features() Features

	// Info describes the device.
	Info() Info
}

// WorkItem is a batch of command buffers to commit.
type WorkItem struct {
	Work []CmdBuffer
	Err  error

	// Custom is ignored by the driver.
	Custom any
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later
// committed to the GPU for execution. The usage is as
// follows:
//
//  1. call Begin
//  2. call BeginPass
//  3. call SetConstantBuf and Draw as needed
//  4. call EndPass
//  5. repeat 2-4 as needed
//  6. call End and, if it succeeds, GPU.Commit
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	// It needs to be called again if the command buffer
	// is executed or reset.
	Begin() error

	// IsRecording returns whether Begin was called
	// without a subsequent End or Reset.
	IsRecording() bool

	// BeginPass begins a render pass targeting the
	// context's current backbuffer.
	BeginPass(clear ClearValue)

	// EndPass ends the current render pass.
	EndPass()

	// SetConstantBuf binds size bytes of buf, starting
	// at off, as the constant data of subsequent draws.
	SetConstantBuf(buf Buffer, off, size int64)

	// Draw draws primitives.
	Draw(vertCount, instCount, baseVert, baseInst int)

	// End ends command recording.
	End() error

	// Reset discards all recorded commands.
	Reset() error
}

// ClearValue is the clear color of a render pass.
type ClearValue struct {
	Color [4]float32
	Depth float32
}

// Usage is a mask indicating valid usages for a resource.
type Usage int

// Usage flags.
const (
	UConstant Usage = 1 << iota
	UVertexData
	UCopySrc
	UCopyDst
)

// Buffer is the interface that defines a GPU buffer.
// The size of the buffer is fixed.
type Buffer interface {
	Destroyer

	// Bytes returns a slice of length Cap referring to the
	// underlying data.
	// The slice is valid for the lifetime of the buffer.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes,
	// which may be greater than the size requested during
	// buffer creation.
	Cap() int64
}

// Limits describes implementation limits.
// These may vary across drivers and devices.
type Limits struct {
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum size of a buffer.
	MaxBuffer int64
	// Maximum range of constant buffer bindings.
	MaxConstantRange int64
	// Required alignment of constant buffer offsets.
	MinConstantAlign int64
	// Maximum number of instances per draw.
	MaxInstances int
	// Maximum dispatch count.
	MaxDispatch [3]int
}

// Features describes optional features.
type Features struct {
	// Support for compute dispatches.
	Compute bool
	// Support for highp in fragment shaders.
	FragmentHighp bool
	// Support for 32-bit float filtering.
	Float32Filter bool
}

// Info describes a device.
type Info struct {
	Vendor   string
	Renderer string
	Version  string
	// Backend-specific surface configuration id.
	ConfigID int
}
