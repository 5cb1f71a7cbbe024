package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/webgpu"
)

// How long a minimized engine blocks on window events per iteration.
const suspendedWait = 100 * time.Millisecond

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Everything was released
	EngineStageStopped
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageStopped:
		return "stopped"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

/**
 * @brief Owns the window, the GPU, the asset manager and the render state,
 * and drives the frame loop on the thread that created the window.
 */
type Engine struct {
	currentStage Stage
	config       *config.ApplicationConfig
	platform     *platform.Platform
	gpu          *webgpu.GPU
	assetManager *assets.AssetManager
	state        *renderer.State
	clock        *core.Clock
	metrics      *core.Metrics
	isSuspended  bool

	// Set from any goroutine, read by the loop.
	quit atomic.Bool
}

func New(cfg *config.ApplicationConfig) *Engine {
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		platform:     platform.New(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize brings up every subsystem in order. Whatever was created is
// released again if a later step fails.
func (e *Engine) Initialize(ctx context.Context) (err error) {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	defer func() {
		if err != nil {
			e.Shutdown()
		}
	}()

	opts, err := renderer.OptionsFromConfig(e.config)
	if err != nil {
		return err
	}

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	w := e.config.Window
	if err := e.platform.Startup(w.Title, w.X, w.Y, w.Width, w.Height); err != nil {
		return err
	}

	e.gpu, err = webgpu.Open(ctx, e.platform.Window, webgpu.Options{
		AppName:         w.Title,
		PowerPreference: e.config.Renderer.PowerPreference,
	})
	if err != nil {
		return err
	}

	e.assetManager, err = assets.NewAssetManager(e.config.Assets)
	if err != nil {
		return err
	}

	width, height := e.platform.FramebufferSize()
	e.state, err = renderer.New(ctx, e.gpu.Device, e.gpu.Surface, renderer.Size{Width: width, Height: height}, e.assetManager, opts)
	// The state owns device and surface from here on, even on failure.
	e.gpu.Device, e.gpu.Surface = nil, nil
	if err != nil {
		return err
	}

	// The engine sees resizes first to track minimization, it never
	// consumes them.
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	for _, code := range []core.EventCode{
		core.EVENT_CODE_APPLICATION_QUIT,
		core.EVENT_CODE_RESIZED,
		core.EVENT_CODE_SCALE_CHANGED,
		core.EVENT_CODE_KEY_PRESSED,
		core.EVENT_CODE_KEY_RELEASED,
	} {
		core.EventRegister(code, e.state, e.state.Input)
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized (%dx%d, %s).", width, height, e.state.SurfaceFormat())
	return nil
}

// Run loops until the window closes, the state asks to exit, ctx is done
// or RequestExit is called.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is %s, expected %s", e.currentStage, EngineStageInitialized)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	lastTime := e.clock.Elapsed()

	for !e.quit.Load() && ctx.Err() == nil {
		if !pumpEvents(e.platform, e.isSuspended) || e.state.ShouldExit() {
			break
		}
		e.reloadShaders()

		if e.isSuspended {
			continue
		}

		e.state.Redraw()

		e.clock.Update()
		now := e.clock.Elapsed()
		if e.metrics.Update(now - lastTime) {
			core.LogDebug("FPS: %.0f, frame time: %.2fms", e.metrics.FPS(), e.metrics.FrameTime())
		}
		lastTime = now

		// Input state is copied last, after everything that reads it.
		core.InputUpdate()
	}

	core.LogInfo("Main loop finished, shutting down.")
	return nil
}

// RequestExit stops the loop before its next frame. Safe to call from a
// signal handler goroutine.
func (e *Engine) RequestExit() {
	e.quit.Store(true)
}

// Shutdown releases the render state before the GPU and the GPU before the
// window.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageStopped {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	if e.state != nil {
		for _, code := range []core.EventCode{
			core.EVENT_CODE_APPLICATION_QUIT,
			core.EVENT_CODE_RESIZED,
			core.EVENT_CODE_SCALE_CHANGED,
			core.EVENT_CODE_KEY_PRESSED,
			core.EVENT_CODE_KEY_RELEASED,
		} {
			core.EventUnregister(code, e.state)
		}
		core.EventUnregister(core.EVENT_CODE_RESIZED, e)
		e.state.Release()
		e.state = nil
	}
	if e.assetManager != nil {
		if err := e.assetManager.Close(); err != nil {
			core.LogWarn("closing the asset manager: %s", err)
		}
		e.assetManager = nil
	}
	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
	if e.platform.Window != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	core.EventSystemShutdown()

	e.currentStage = EngineStageStopped
	return nil
}

type eventPump interface {
	PumpMessages() bool
	WaitEvents(timeout time.Duration) bool
}

// pumpEvents processes window events. While rendering is suspended it
// blocks for up to suspendedWait instead of polling. It reports whether the
// window is still open.
func pumpEvents(p eventPump, suspended bool) bool {
	if suspended {
		return p.WaitEvents(suspendedWait)
	}
	return p.PumpMessages()
}

// reloadShaders drains the pending shader changes, each shader at most
// once per frame.
func (e *Engine) reloadShaders() {
	pending := make(map[string]struct{})
drain:
	for {
		select {
		case name := <-e.assetManager.ShaderChanges():
			pending[name] = struct{}{}
		default:
			break drain
		}
	}

	for name := range pending {
		src, err := e.assetManager.ReadShader(name)
		if err != nil {
			core.LogError("reading shader %s: %s", name, err)
			continue
		}
		if err := e.state.ReloadShader(name, src); err != nil {
			core.LogError("shader %s rejected, keeping the current pipelines: %s", name, err)
		}
	}
}

func (e *Engine) onResized(ctx core.EventContext) bool {
	se, ok := ctx.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", ctx.Type)
		return false
	}

	// Handle minimization
	if se.Width == 0 || se.Height == 0 {
		if !e.isSuspended {
			core.LogInfo("Window minimized, suspending rendering.")
			e.isSuspended = true
		}
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming rendering.")
		e.isSuspended = false
	}
	return false
}
