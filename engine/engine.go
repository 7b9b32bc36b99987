package engine

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/meshview/engine/assets"
	"github.com/spaghettifunk/meshview/engine/config"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/platform"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
	"github.com/spaghettifunk/meshview/engine/renderer/vulkan"
)

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
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

const fpsLogInterval = time.Second

// Engine ties the window, the asset manager and the renderer together and
// runs the frame loop.
type Engine struct {
	currentStage Stage
	config       *config.Config

	stopRequested atomic.Bool
	isSuspended   bool

	input        *core.InputState
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *vulkan.VulkanRenderer
	model        *metadata.Model

	clock      *core.Clock
	metrics    *core.Metrics
	lastFPSLog time.Duration
}

func New(cfg *config.Config) *Engine {
	input := core.NewInputState()
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		input:        input,
		platform:     platform.New(input),
		assetManager: assets.NewAssetManager(),
		renderer: vulkan.New(vulkan.RendererConfig{
			ApplicationName: cfg.Window.Title,
			FramesInFlight:  uint32(cfg.Render.FramesInFlight),
			MaxSamples:      cfg.Render.MaxSamples,
			Validation:      cfg.Render.Validation,
		}),
		clock:   core.NewClock(),
		metrics: core.NewMetrics(),
	}
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := e.platform.Startup(e.config.Window.Title, e.config.Window.Width, e.config.Window.Height); err != nil {
		return fmt.Errorf("platform: %w", err)
	}

	shaderDir := filepath.Dir(e.config.Render.VertexShader)
	if err := e.assetManager.Initialize(shaderDir, e.config.Render.HotReload); err != nil {
		return fmt.Errorf("assets: %w", err)
	}

	model, shaders, err := e.loadAssets()
	if err != nil {
		return err
	}
	e.model = model

	if err := e.renderer.Initialize(e.platform, model.Texture, model.Light, model.Vertices, model.Indices, shaders); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// loadAssets reads the model (with its texture) and the shaders in parallel.
func (e *Engine) loadAssets() (*metadata.Model, vulkan.ShaderCode, error) {
	jobs, err := core.NewJobSystem(2, 2)
	if err != nil {
		return nil, vulkan.ShaderCode{}, err
	}
	defer jobs.Shutdown()

	var model *metadata.Model
	var shaders vulkan.ShaderCode
	jobs.Submit(core.Job{
		Name: "model " + e.config.Model.Path,
		Run: func() (err error) {
			model, err = e.assetManager.LoadModel(e.config.Model.Path)
			return err
		},
	})
	jobs.Submit(core.Job{
		Name: "shaders",
		Run: func() (err error) {
			shaders, err = e.loadShaders()
			return err
		},
	})
	if err := jobs.Wait(); err != nil {
		return nil, vulkan.ShaderCode{}, err
	}
	return model, shaders, nil
}

func (e *Engine) loadShaders() (vulkan.ShaderCode, error) {
	vertex, err := e.assetManager.LoadShader(e.config.Render.VertexShader)
	if err != nil {
		return vulkan.ShaderCode{}, fmt.Errorf("vertex shader: %w", err)
	}
	fragment, err := e.assetManager.LoadShader(e.config.Render.FragmentShader)
	if err != nil {
		return vulkan.ShaderCode{}, fmt.Errorf("fragment shader: %w", err)
	}
	return vulkan.ShaderCode{Vertex: vertex, Fragment: fragment}, nil
}

// Run drives frames until the window closes, Escape is pressed or Stop is
// called. Any renderer error ends the loop and is returned.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()

	for !e.stopRequested.Load() {
		if !e.platform.PumpMessages() {
			break
		}

		delta := e.clock.Tick()
		e.clock.Update()

		width, height := e.platform.FramebufferSize()
		if width == 0 || height == 0 {
			if !e.isSuspended {
				core.LogInfo("Window minimized, suspending rendering.")
				e.isSuspended = true
			}
			e.platform.WaitEvents()
			continue
		}
		if e.isSuspended {
			core.LogInfo("Window restored, resuming rendering.")
			e.isSuspended = false
		}

		e.input.Advance(delta)
		e.reloadChangedShaders()

		frameStart := time.Now()
		if err := e.renderer.Render(e.platform, e.model.IndexCount(), e.input); err != nil {
			return err
		}
		e.metrics.Update(time.Since(frameStart).Seconds())
		e.logFrameRate()
	}
	return nil
}

// Stop asks Run to return after the current frame. It may be called from
// any goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()

	e.renderer.Destroy()
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageUninitialized
	return nil
}

// reloadChangedShaders rebuilds the pipeline when one of the configured
// shaders was rewritten. Pending notifications are drained without blocking.
func (e *Engine) reloadChangedShaders() {
	changed := false
	for drained := false; !drained; {
		select {
		case path, ok := <-e.assetManager.ShaderChanges():
			if !ok {
				drained = true
			} else if e.isConfiguredShader(path) {
				changed = true
			}
		default:
			drained = true
		}
	}
	if !changed {
		return
	}

	e.reloadShaders()
}

// reloadShaders rebuilds the pipeline from the configured shaders. On
// failure the renderer keeps drawing with its current pipeline.
func (e *Engine) reloadShaders() {
	shaders, err := e.loadShaders()
	if err != nil {
		core.LogError("shader reload skipped: %s", err)
		return
	}
	if err := e.renderer.ReloadShaders(shaders); err != nil {
		core.LogWarn("shader reload failed, keeping the current pipeline: %s", err)
	}
}

func (e *Engine) isConfiguredShader(path string) bool {
	return samePath(path, e.config.Render.VertexShader) || samePath(path, e.config.Render.FragmentShader)
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func (e *Engine) logFrameRate() {
	elapsed := e.clock.Elapsed()
	if elapsed-e.lastFPSLog < fpsLogInterval {
		return
	}
	e.lastFPSLog = elapsed
	fps, frameMS := e.metrics.Frame()
	core.LogDebug("%.0f fps, %.3f ms/frame, frame %d", fps, frameMS, e.renderer.FrameNumber)
}
