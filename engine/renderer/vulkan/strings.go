package vulkan

import vk "github.com/goki/vulkan"

const endChar byte = '\x00'

// safeString zero-terminates s for the C side.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != endChar {
		return s + string(endChar)
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// cString reads a fixed size, zero padded C string.
func cString(arr []byte) string {
	for i, b := range arr {
		if b == endChar {
			return string(arr[:i])
		}
	}
	return string(arr)
}

func resultString(res vk.Result) string {
	switch res {
	case vk.Success:
		return "success"
	case vk.ErrorOutOfHostMemory:
		return "out of host memory"
	case vk.ErrorOutOfDeviceMemory:
		return "out of device memory"
	case vk.ErrorInitializationFailed:
		return "initialization failed"
	case vk.ErrorLayerNotPresent:
		return "layer not present"
	case vk.ErrorExtensionNotPresent:
		return "extension not present"
	case vk.ErrorIncompatibleDriver:
		return "incompatible driver"
	default:
		return "unknown error"
	}
}
