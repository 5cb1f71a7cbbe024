//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const (
	binaryName = "lumen"
	publicDir  = "public"
)

// Builds the lumen binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", binaryName), "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Renders every shader variant and validates it with naga.
func (Build) Shaders() error {
	if _, err := executeCmd("go", withArgs("test", "-run", "VariantsCompile", "./engine/renderer/shaders/..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Copies assets/ into public/assets, together with the shader templates so
// they can be edited while the engine runs.
func (Build) Assets() error {
	dst := filepath.Join(publicDir, "assets")
	if err := copyTree("assets", dst); err != nil {
		return err
	}
	shaders, err := filepath.Glob(filepath.Join("engine", "renderer", "shaders", "*.wgsl"))
	if err != nil {
		return err
	}
	for _, src := range shaders {
		if err := copyFile(src, filepath.Join(dst, "shaders", filepath.Base(src))); err != nil {
			return err
		}
	}
	fmt.Printf("Assets copied to %s\n", dst)
	return nil
}

// Removes bin/ and public/.
func Clean() error {
	for _, dir := range []string{"bin", publicDir} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}
