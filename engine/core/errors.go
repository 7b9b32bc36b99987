package core

import (
	"errors"
)

var (
	ErrNoSuitableDevice  = errors.New("no physical device meets the requirements")
	ErrNoMemoryType      = errors.New("no memory type matches the requested properties")
	ErrUnsupportedFormat = errors.New("no supported format found")
	ErrBlitUnsupported   = errors.New("format does not support linear blitting")
	ErrAcquireFailed     = errors.New("failed to acquire swapchain image")
	ErrPresentFailed     = errors.New("failed to present swapchain image")
	ErrInvalidModel      = errors.New("invalid model")

	ErrRendererNotInitialized = errors.New("renderer is not initialized")
)
