// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gviegas/gfxbench/descriptor"
	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/engine"
	"github.com/gviegas/gfxbench/internal/logx"
	"github.com/gviegas/gfxbench/result"
	"github.com/gviegas/gfxbench/wsi"
)

// State is the state of a Runner.
type State int

// Runner states.
// A Runner moves forward through Uninitialized, Initializing,
// Warmup, Running, Finishing and Done. Cancelled and Failed
// are terminal and can be reached from any state.
const (
	Uninitialized State = iota
	Initializing
	Warmup
	Running
	Finishing
	Done
	Cancelled
	Failed
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	Initializing:  "initializing",
	Warmup:        "warmup",
	Running:       "running",
	Finishing:     "finishing",
	Done:          "done",
	Cancelled:     "cancelled",
	Failed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Options configures a Runner.
type Options struct {
	// Driver used for the run.
	// If nil, the registered driver of the descriptor's
	// backend whose name contains DriverName is used.
	Driver     driver.Driver
	DriverName string

	// Default is SystemClock.
	Clock Clock

	// Queue from which input is read.
	// If nil, the Runner creates one.
	Queue *wsi.Queue

	// Sensors sampled by the charts component.
	// If nil, the platform's sensors are used. Set it to
	// an empty slice to disable sensors.
	Sensors []Sensor

	// Directory where screenshots are written.
	// Screenshots are disabled if empty.
	ScreenshotDir string

	// Directory of particle state files.
	StateDir string

	// Forces a normalized score.
	NormalizedScore bool

	ResultID string

	// Default is engine.DefaultConfig().
	Engine engine.Config
}

// Runner runs a single Test.
// Its methods must be called from a single goroutine,
// with the exception of Cancel and IsCancelled.
type Runner struct {
	test  Test
	opts  Options
	clock Clock
	queue *wsi.Queue

	state     State
	err       error
	cancelled atomic.Bool
	done      bool
	closed    bool
	testInit  bool
	loadTime  time.Duration

	desc *descriptor.Descriptor
	drv  driver.Driver
	gctx driver.Context
	gpu  driver.GPU
	caps *engine.Capabilities
	rend *engine.Renderer
	rot  *engine.Rotation

	comps  []Component
	time   *TimeComponent
	vsync  *VSyncComponent
	charts *ChartsComponent
	input  *InputComponent
	shot   *ScreenshotComponent
	stats  *StatisticsComponent
	screen *ScreenManager

	res *result.Group
}

// NewRunner creates a new Runner for test.
func NewRunner(test Test, opts Options) *Runner {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Queue == nil {
		opts.Queue = &wsi.Queue{}
	}
	if opts.Engine == (engine.Config{}) {
		opts.Engine = engine.DefaultConfig()
	}
	opts.Engine.Validate()
	return &Runner{
		test:  test,
		opts:  opts,
		clock: opts.Clock,
		queue: opts.Queue,
	}
}

func (r *Runner) setState(s State) {
	if r.state == s {
		return
	}
	logx.L().Info("runner state changed", "from", r.state, "to", s)
	r.state = s
}

// Init parses the descriptor, creates the graphics
// context and the components, and then initializes and
// warms up the test.
// If it fails, the run is over: Result reports the
// failure and Close must still be called.
func (r *Runner) Init(ctx context.Context, descriptorJSON []byte) (err error) {
	if r.state != Uninitialized {
		return fmt.Errorf("%w: Init called in state %v", ErrState, r.state)
	}
	r.setState(Initializing)
	start := r.clock.Now()
	defer func() {
		if err != nil {
			r.fail(err)
		}
	}()

	if r.desc, err = descriptor.Parse(descriptorJSON); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	if err = r.initContext(); err != nil {
		return
	}
	if err = r.initRenderer(); err != nil {
		return
	}
	if err = r.initComponents(); err != nil {
		return
	}
	if err = r.checkCancel(ctx); err != nil {
		return
	}

	r.setState(Warmup)
	r.testInit = true
	if err = r.test.Init(r); err != nil {
		return fmt.Errorf("%w: %w", ErrTestInit, err)
	}
	if err = r.test.Warmup(r); err != nil {
		return fmt.Errorf("%w: warmup: %w", ErrTestInit, err)
	}
	if err = r.rend.WaitFinish(); err != nil {
		return fmt.Errorf("%w: warmup: %w", ErrTestInit, err)
	}
	if err = r.gctx.SwapBuffers(); err != nil {
		return fmt.Errorf("%w: %w", ErrInitRenderAPI, err)
	}
	if err = r.checkCancel(ctx); err != nil {
		return
	}
	r.loadTime = r.clock.Now().Sub(start)
	logx.L().Info("test initialized", "test", r.desc.TestID, "load", r.loadTime)
	return nil
}

func (r *Runner) checkCancel(ctx context.Context) error {
	if ctx.Err() != nil || r.IsCancelled() {
		return ErrCancelled
	}
	return nil
}

func (r *Runner) initContext() (err error) {
	cfg, err := r.desc.ContextConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	if r.drv = r.opts.Driver; r.drv == nil {
		if r.drv, err = driver.Select(r.desc.Backend(), r.opts.DriverName); err != nil {
			return fmt.Errorf("%w: %w", ErrInitRenderAPI, err)
		}
	}
	if r.gctx, err = r.drv.NewContext(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInitRenderAPI, err)
	}
	if err = r.gctx.MakeCurrent(); err != nil {
		return fmt.Errorf("%w: %w", ErrInitRenderAPI, err)
	}
	if r.gpu, err = r.drv.Open(r.gctx); err != nil {
		return fmt.Errorf("%w: %w", ErrInitRenderAPI, err)
	}
	r.caps = engine.NewCapabilities(r.gctx, r.gpu, r.desc.ForceHighp, r.desc.WorkgroupSizes)
	info := r.gpu.Info()
	logx.L().Info("graphics context created",
		"driver", r.drv.Name(),
		"backend", r.drv.Backend(),
		"vendor", info.Vendor,
		"renderer", info.Renderer,
		"version", info.Version)
	return nil
}

func (r *Runner) initRenderer() (err error) {
	perFrame, prerendered := r.test.CmdBufferConfig()
	prerendered = min(prerendered, r.opts.Engine.MaxPrerendered)
	if r.rot, err = engine.NewRotation(perFrame, prerendered); err != nil {
		return fmt.Errorf("%w: %w", ErrCmdBufferConfig, err)
	}
	if r.rend, err = engine.NewRenderer(r.gpu, r.rot.Len()); err != nil {
		return fmt.Errorf("%w: %w", ErrInitRenderAPI, err)
	}
	return nil
}

func (r *Runner) initComponents() error {
	r.time = &TimeComponent{}
	r.vsync = &VSyncComponent{}
	r.charts = &ChartsComponent{}
	r.input = &InputComponent{}
	r.shot = &ScreenshotComponent{}
	r.screen = &ScreenManager{}
	r.comps = []Component{r.time, r.vsync, r.charts, r.input, r.shot}
	if r.desc.FrameStatistics {
		r.stats = &StatisticsComponent{}
		r.comps = append(r.comps, r.stats)
	}
	r.comps = append(r.comps, r.screen)
	for _, c := range r.comps {
		if err := c.Init(r); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrComponentInit, c.Name(), err)
		}
		logx.L().Debug("component initialized", "component", c.Name())
	}
	return nil
}

// Run runs the frame loop until the time component
// finishes the run, Cancel is called or ctx is done.
// Cancellation is checked once per frame, at its end.
// It returns nil if the run completes or is cancelled.
func (r *Runner) Run(ctx context.Context) (err error) {
	if r.state != Warmup {
		return fmt.Errorf("%w: Run called in state %v", ErrState, r.state)
	}
	stop := context.AfterFunc(ctx, r.Cancel)
	defer stop()

	r.setState(Running)
	for !r.done {
		if err = r.frame(ctx); err != nil {
			break
		}
	}
	r.setState(Finishing)
	if werr := r.rend.WaitFinish(); err == nil && werr != nil {
		err = fmt.Errorf("%w: %w", driver.ErrFatal, werr)
	}
	if err == nil {
		err = r.screen.flush(r)
	}
	if err != nil {
		r.fail(err)
		return err
	}
	r.createResults()
	if r.IsCancelled() {
		r.setState(Cancelled)
	} else {
		r.setState(Done)
	}
	logx.L().Info("test finished",
		"test", r.desc.TestID,
		"status", r.res.Result().Status,
		"frames", r.time.Frames(),
		"elapsed", r.time.Elapsed())
	return nil
}

// frame runs one iteration of the frame loop.
func (r *Runner) frame(ctx context.Context) error {
	for _, c := range r.comps {
		c.BeginFrame(r)
	}
	if err := r.nextCmdBuffers(); err != nil {
		return err
	}
	if err := r.test.Animate(ctx, r); err != nil {
		return err
	}
	if err := r.test.Render(ctx, r); err != nil {
		return err
	}
	if err := r.submit(); err != nil {
		return err
	}
	for _, c := range r.comps {
		c.AfterRender(r)
	}
	if err := r.screen.present(r); err != nil {
		return err
	}
	for _, c := range r.comps {
		c.EndFrame(r)
	}
	return nil
}

// nextCmdBuffers advances the rotation and begins every
// command buffer of the frame.
func (r *Runner) nextCmdBuffers() error {
	if r.time.Frames() > 0 {
		r.rot.Next()
	}
	for _, idx := range r.rot.Indices() {
		if _, err := r.rend.Begin(idx); err != nil {
			return err
		}
	}
	return nil
}

// submit submits the command buffers that are still
// recording, in order.
func (r *Runner) submit() error {
	for _, idx := range r.rot.Indices() {
		if !r.rend.Recording(idx) {
			continue
		}
		if err := r.rend.Submit(idx); err != nil {
			return err
		}
	}
	return nil
}

// newGroup creates a result group with a single result
// filled with the run's static information.
func (r *Runner) newGroup() *result.Group {
	res := result.Result{
		ResultID: r.opts.ResultID,
		Status:   result.OK,
		Unit:     Unit,
		LoadTime: r.loadTime.Milliseconds(),
		Flags:    []string{},
	}
	if r.desc != nil {
		res.TestID = r.desc.TestID
		res.Descriptor = r.desc.Raw()
		res.GFXResult.SurfaceWidth = r.desc.Env.Width
		res.GFXResult.SurfaceHeight = r.desc.Env.Height
	}
	if r.gpu != nil {
		info := r.gpu.Info()
		res.GFXResult.Vendor = info.Vendor
		res.GFXResult.Renderer = info.Renderer
		res.GFXResult.GraphicsVersion = info.Version
		res.GFXResult.EGLConfigID = info.ConfigID
	}
	return &result.Group{Results: []result.Result{res}, Charts: []*result.Chart{}}
}

func (r *Runner) createResults() {
	if rc, ok := r.test.(ResultCreator); ok {
		if g := rc.CreateResult(r); g != nil {
			r.res = g
			return
		}
	}
	g := r.newGroup()
	if r.IsCancelled() {
		res := g.Result()
		res.Status = result.Cancelled
		res.ErrorString = ErrCancelled.Error()
	}
	for _, c := range r.comps {
		c.CreateResult(r, g)
	}
	r.res = g
}

// fail ends the run with err.
func (r *Runner) fail(err error) {
	r.err = err
	g := r.newGroup()
	res := g.Result()
	res.ErrorString = err.Error()
	if errors.Is(err, ErrCancelled) {
		res.Status = result.Cancelled
		r.setState(Cancelled)
	} else {
		res.Status = result.Failed
		r.setState(Failed)
		logx.L().Error("test failed", "err", err)
	}
	if r.time != nil {
		r.time.CreateResult(r, g)
	}
	r.res = g
}

// Cancel requests the run to stop at the end of the
// current frame.
// It is safe to call from any goroutine.
func (r *Runner) Cancel() {
	if !r.cancelled.Swap(true) {
		logx.L().Info("cancel requested")
	}
}

// IsCancelled returns whether Cancel has been called.
// It is safe to call from any goroutine.
func (r *Runner) IsCancelled() bool { return r.cancelled.Load() }

// Finish ends the run after the current frame.
func (r *Runner) Finish() { r.done = true }

// Finished returns whether the run ends after the
// current frame.
func (r *Runner) Finished() bool { return r.done }

// Result returns the result of the run, or nil if the
// run has neither completed nor failed.
func (r *Runner) Result() *result.Group { return r.res }

// Err returns the error that failed the run, if any.
func (r *Runner) Err() error { return r.err }

// State returns the current state.
func (r *Runner) State() State { return r.state }

// Close releases every resource of the run.
// In-flight GPU work is waited for.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.rend != nil {
		r.rend.WaitFinish()
	}
	if r.testInit {
		r.test.Free()
	}
	for _, c := range slices.Backward(r.comps) {
		c.Close()
	}
	if r.rend != nil {
		r.rend.Destroy()
	}
	if r.gctx != nil {
		r.gctx.DetachThread()
		r.gctx.Destroy()
	}
	if r.drv != nil {
		r.drv.Close()
	}
}

// Descriptor returns the parsed descriptor.
func (r *Runner) Descriptor() *descriptor.Descriptor { return r.desc }

// Options returns the options of the run.
func (r *Runner) Options() *Options { return &r.opts }

// Clock returns the run's clock.
func (r *Runner) Clock() Clock { return r.clock }

// Queue returns the input queue.
// Window systems push messages to it from any goroutine.
func (r *Runner) Queue() *wsi.Queue { return r.queue }

// Context returns the graphics context.
func (r *Runner) Context() driver.Context { return r.gctx }

// GPU returns the GPU.
func (r *Runner) GPU() driver.GPU { return r.gpu }

// Capabilities returns the render capabilities of the
// run.
func (r *Runner) Capabilities() *engine.Capabilities { return r.caps }

// Renderer returns the command buffer owner.
func (r *Runner) Renderer() *engine.Renderer { return r.rend }

// Rotation returns the command buffer rotation.
func (r *Runner) Rotation() *engine.Rotation { return r.rot }

// CmdBuffer returns the i-th command buffer of the
// current frame.
func (r *Runner) CmdBuffer(i int) driver.CmdBuffer {
	return r.rend.CmdBuffer(r.rot.Indices()[i])
}

// Slot returns the frame-in-flight slot of the current
// frame.
func (r *Runner) Slot() int { return r.rot.Slot() }

// AnimationTime returns the animation time of the
// current frame in milliseconds.
func (r *Runner) AnimationTime() int { return r.time.AnimationTime() }

// Normalized returns whether the score is normalized.
func (r *Runner) Normalized() bool {
	return r.opts.NormalizedScore || (r.desc != nil && r.desc.NormalizedScore)
}

// Components returns the components in call order.
func (r *Runner) Components() []Component { return slices.Clone(r.comps) }

// Time returns the time component.
func (r *Runner) Time() *TimeComponent { return r.time }

// VSync returns the vsync component.
func (r *Runner) VSync() *VSyncComponent { return r.vsync }

// Charts returns the charts component.
func (r *Runner) Charts() *ChartsComponent { return r.charts }

// Input returns the input component.
func (r *Runner) Input() *InputComponent { return r.input }

// Screenshots returns the screenshot component.
func (r *Runner) Screenshots() *ScreenshotComponent { return r.shot }

// Statistics returns the statistics component, or nil
// if frame statistics are disabled.
func (r *Runner) Statistics() *StatisticsComponent { return r.stats }

// Screen returns the screen manager.
func (r *Runner) Screen() *ScreenManager { return r.screen }
