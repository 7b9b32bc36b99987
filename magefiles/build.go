//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const shaderDir = "assets/shaders"

// Compiles the GLSL shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the meshview binary into bin/.
func (Build) Viewer() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "meshview"), "."), withStream())
	return err
}

func buildShaders() error {
	stages := map[string]string{
		"shader.vert": "vert.spv",
		"shader.frag": "frag.spv",
	}
	for source, output := range stages {
		if _, err := executeCmd("glslc", withArgs(source, "-o", output), withDir(shaderDir), withStream()); err != nil {
			return err
		}
	}
	return nil
}
