//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Validates the shaders, copies the assets and runs the engine.
func (Run) Engine() error {
	mg.SerialDeps(Build.Shaders, Build.Assets)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "lumen.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
