package platform

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/meshview/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the GLFW window and turns its events into InputState changes.
type Platform struct {
	Window *glfw.Window

	input   *core.InputState
	resized bool
}

func New(input *core.InputState) *Platform {
	return &Platform{
		input: input,
	}
}

func (p *Platform) Startup(applicationName string, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return core.ErrNoSuitableDevice
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events. It reports false once the
// window should close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	if p.Window.ShouldClose() {
		p.input.Quit = true
	}
	return !p.input.Quit
}

func (p *Platform) FramebufferSize() (int, int) {
	return p.Window.GetFramebufferSize()
}

func (p *Platform) Resized() bool {
	return p.resized
}

func (p *Platform) ClearResized() {
	p.resized = false
}

func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(surfPtr), nil
}

func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code, ok := translateKey(key)
	if !ok {
		return
	}
	// repeats count as presses so holding a key keeps accelerating
	p.input.ProcessKey(code, action != glfw.Release, time.Now())
	if p.input.Quit {
		w.SetShouldClose(true)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.resized = true
}

var keyMap = map[glfw.Key]core.KeyCode{
	glfw.KeyEscape:     core.KEY_ESCAPE,
	glfw.KeyPageUp:     core.KEY_PRIOR,
	glfw.KeyPageDown:   core.KEY_NEXT,
	glfw.KeyLeft:       core.KEY_LEFT,
	glfw.KeyUp:         core.KEY_UP,
	glfw.KeyRight:      core.KEY_RIGHT,
	glfw.KeyDown:       core.KEY_DOWN,
	glfw.KeyA:          core.KEY_A,
	glfw.KeyD:          core.KEY_D,
	glfw.KeyE:          core.KEY_E,
	glfw.KeyL:          core.KEY_L,
	glfw.KeyQ:          core.KEY_Q,
	glfw.KeyR:          core.KEY_R,
	glfw.KeyS:          core.KEY_S,
	glfw.KeyT:          core.KEY_T,
	glfw.KeyU:          core.KEY_U,
	glfw.KeyW:          core.KEY_W,
	glfw.KeyKPAdd:      core.KEY_ADD,
	glfw.KeyKPSubtract: core.KEY_SUBTRACT,
	glfw.KeyEqual:      core.KEY_PLUS,
	glfw.KeyMinus:      core.KEY_MINUS,
}

func translateKey(key glfw.Key) (core.KeyCode, bool) {
	code, ok := keyMap[key]
	return code, ok
}
