// Package webgpu implements the renderer backend on wgpu-native.
package webgpu

import (
	"context"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/backend"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

type Options struct {
	AppName string
	// One of auto, high-performance or low-power. Auto probes the Vulkan
	// devices and asks for high performance when a discrete GPU exists.
	PowerPreference string
}

/**
 * @brief The instance and adapter behind one window. Device and Surface
 * are handed over to the render state, which releases them.
 */
type GPU struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	Device  backend.Device
	Surface backend.Surface
}

// Open creates the WebGPU instance, a surface for window, an adapter able
// to present to it and a device. Must run on the thread owning the window.
func Open(ctx context.Context, window *glfw.Window, opts Options) (g *GPU, err error) {
	pref := powerPreference(opts)

	g = &GPU{instance: wgpu.CreateInstance(nil)}
	defer func() {
		if err != nil {
			g.Release()
			g = nil
		}
	}()

	s := g.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	if s == nil {
		return g, fmt.Errorf("failed to create a surface for the window")
	}
	g.Surface = &surface{s: s}

	if err = ctx.Err(); err != nil {
		return g, err
	}
	g.adapter, err = g.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: s,
		PowerPreference:   pref,
	})
	if err != nil {
		return g, fmt.Errorf("%w: %v", core.ErrNoAdapter, err)
	}
	if g.adapter == nil {
		return g, core.ErrNoAdapter
	}

	if err = ctx.Err(); err != nil {
		return g, err
	}
	d, err := g.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Lumen Device",
	})
	if err != nil {
		return g, fmt.Errorf("%w: %v", core.ErrNoDevice, err)
	}
	if d == nil {
		return g, core.ErrNoDevice
	}
	g.Device = newDevice(d)
	g.Surface.(*surface).adapter = g.adapter
	g.Surface.(*surface).device = d

	core.LogInfo("WebGPU device ready (power preference %s).", opts.PowerPreference)
	return g, nil
}

func powerPreference(opts Options) wgpu.PowerPreference {
	switch opts.PowerPreference {
	case "high-performance":
		return wgpu.PowerPreferenceHighPerformance
	case "low-power":
		return wgpu.PowerPreferenceLowPower
	}

	probe, err := vulkan.Probe(opts.AppName)
	if err != nil {
		core.LogWarn("Vulkan probe failed, using the default adapter: %s", err)
		return wgpu.PowerPreferenceUndefined
	}
	if probe.HasDiscreteGPU() {
		return wgpu.PowerPreferenceHighPerformance
	}
	return wgpu.PowerPreferenceUndefined
}

// Release frees the adapter and the instance, and the device and the
// surface unless they were handed over by setting the fields to nil.
func (g *GPU) Release() {
	if g.Surface != nil {
		g.Surface.Release()
		g.Surface = nil
	}
	if g.Device != nil {
		g.Device.Release()
		g.Device = nil
	}
	if g.adapter != nil {
		g.adapter.Release()
		g.adapter = nil
	}
	if g.instance != nil {
		g.instance.Release()
		g.instance = nil
	}
}
