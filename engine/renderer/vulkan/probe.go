// Package vulkan inspects the Vulkan physical devices of the machine before
// the WebGPU adapter is requested, so the adapter power preference can
// follow the hardware.
package vulkan

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
)

/** @brief What the probe learned about one physical device. */
type DeviceInfo struct {
	Name          string
	Type          vk.PhysicalDeviceType
	APIVersion    string
	DriverVersion string
}

func (d DeviceInfo) Discrete() bool {
	return d.Type == vk.PhysicalDeviceTypeDiscreteGpu
}

type ProbeResult struct {
	Devices []DeviceInfo
}

func (r *ProbeResult) HasDiscreteGPU() bool {
	if r == nil {
		return false
	}
	for _, d := range r.Devices {
		if d.Discrete() {
			return true
		}
	}
	return false
}

// Probe creates a throwaway Vulkan instance and lists the physical devices.
// glfw must be initialized.
func Probe(appName string) (*ProbeResult, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vk: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(appName),
		PEngineName:        safeString("Lumen"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	if runtime.GOOS == "darwin" {
		extensions := safeStrings([]string{
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		})
		createInfo.EnabledExtensionCount = uint32(len(extensions))
		createInfo.PpEnabledExtensionNames = extensions
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return nil, fmt.Errorf("vkCreateInstance failed: %s", resultString(res))
	}
	defer vk.DestroyInstance(instance, nil)
	if err := vk.InitInstance(instance); err != nil {
		return nil, err
	}

	var count uint32
	if res := vk.EnumeratePhysicalDevices(instance, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("vkEnumeratePhysicalDevices failed: %s", resultString(res))
	}
	devices := make([]vk.PhysicalDevice, count)
	if count > 0 {
		if res := vk.EnumeratePhysicalDevices(instance, &count, devices); res != vk.Success {
			return nil, fmt.Errorf("vkEnumeratePhysicalDevices failed: %s", resultString(res))
		}
	}

	result := &ProbeResult{}
	for _, pd := range devices[:count] {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &properties)
		properties.Deref()

		info := DeviceInfo{
			Name:          cString(properties.DeviceName[:]),
			Type:          properties.DeviceType,
			APIVersion:    versionString(properties.ApiVersion),
			DriverVersion: versionString(properties.DriverVersion),
		}
		core.LogDebug("Vulkan device '%s': %s, API %s, driver %s.", info.Name, DeviceTypeName(info.Type), info.APIVersion, info.DriverVersion)
		result.Devices = append(result.Devices, info)
	}
	return result, nil
}

func DeviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "unknown"
	}
}

func versionString(v uint32) string {
	ver := vk.Version(v)
	return fmt.Sprintf("%d.%d.%d", ver.Major(), ver.Minor(), ver.Patch())
}
