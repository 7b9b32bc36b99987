//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the viewer with config.toml.
func (Run) Viewer() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run viewer...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the unit tests. GPU tests run when MESHVIEW_GPU_TESTS is set.
func (Run) Tests() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
