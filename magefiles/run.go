//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Renders 240 frames headless and writes the last frame and its bin heatmap.
func (Run) Pipeline() error {
	mg.Deps(Build.Pipeline)
	fmt.Println("Run pipeline...")
	_, err := executeCmd("bin/voxel-pipeline",
		withArgs("-frames", "240", "-out", "frame.png", "-heatmap", "heatmap.png"), withStream())
	return err
}

// Opens the viewer window.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)
	fmt.Println("Run viewer...")
	_, err := executeCmd("bin/voxel-viewer", withStream())
	return err
}
