//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the headless pipeline driver into bin/.
func (Build) Pipeline() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/voxel-pipeline", "./cmd/voxel-pipeline"), withStream())
	return err
}

// Builds the GL viewer into bin/ (needs cgo and the GLFW system headers).
func (Build) Viewer() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/voxel-viewer", "./cmd/voxel-viewer"),
		withEnv("CGO_ENABLED=1"), withStream())
	return err
}

// Builds every binary.
func (Build) All() {
	mg.Deps(Build.Pipeline, Build.Viewer)
}
