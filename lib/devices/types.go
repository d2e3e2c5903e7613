package devices

// VendorNVIDIA is the PCI vendor ID of NVIDIA.
const VendorNVIDIA = "10de"

// GPU is an accelerator found on the host PCI bus.
type GPU struct {
	PCIAddress string
	DeviceID   string
	Model      string
}
