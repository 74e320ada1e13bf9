//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the package tests.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./internal/..."), withStream())
	return err
}

// Runs the package tests under the race detector.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./internal/..."), withStream())
	return err
}

// Runs the frame pass and mesher benchmarks.
func (Test) Bench() error {
	_, err := executeCmd("go", withArgs("test", "-run", "^$", "-bench", ".", "-benchmem",
		"./internal/scene", "./internal/meshing"), withStream())
	return err
}

// Runs go vet on the module.
func (Test) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
