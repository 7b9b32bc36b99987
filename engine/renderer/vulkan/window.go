package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Window is what the renderer needs from the windowing layer.
type Window interface {
	// FramebufferSize reports the drawable size in pixels; 0x0 while minimized.
	FramebufferSize() (int, int)
	// Resized reports a resize noticed since the last ClearResized.
	Resized() bool
	ClearResized()
	// WaitEvents blocks until the window receives an event.
	WaitEvents()

	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	GetInstanceProcAddress() unsafe.Pointer
}
