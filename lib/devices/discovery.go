package devices

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// DefaultSysfsRoot is where the kernel exposes sysfs on Linux hosts.
const DefaultSysfsRoot = "/sys"

// pciAddressPattern matches PCI addresses like "0000:a2:00.0"
var pciAddressPattern = regexp.MustCompile(`^[0-9a-fA-F]{4}:[0-9a-fA-F]{2}:[0-9a-fA-F]{2}\.[0-9a-fA-F]$`)

// ValidatePCIAddress validates that a string is a valid PCI address format
func ValidatePCIAddress(addr string) bool {
	return pciAddressPattern.MatchString(addr)
}

// Discoverer finds accelerators that can be handed to a container.
type Discoverer interface {
	DiscoverGPUs() ([]GPU, error)
}

// SysfsDiscoverer scans the PCI bus under a sysfs root.
type SysfsDiscoverer struct {
	root string
}

var _ Discoverer = (*SysfsDiscoverer)(nil)

// NewSysfsDiscoverer creates a discoverer rooted at root ("/sys" when empty).
func NewSysfsDiscoverer(root string) *SysfsDiscoverer {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsDiscoverer{root: root}
}

// DiscoverGPUs returns the NVIDIA display and 3D controllers on the host,
// ordered by PCI address. A host without a PCI bus in sysfs (macOS, some VMs)
// yields ErrNoSysfs. Devices whose attributes cannot be read are ignored.
func (d *SysfsDiscoverer) DiscoverGPUs() ([]GPU, error) {
	bus := filepath.Join(d.root, "bus", "pci", "devices")
	entries, err := os.ReadDir(bus)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSysfs
	}
	if err != nil {
		return nil, fmt.Errorf("read sysfs devices: %w", err)
	}

	addrs := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), ValidatePCIAddress(e.Name())
	})
	slices.Sort(addrs)

	var gpus []GPU
	for _, addr := range addrs {
		dev, err := readPCIDevice(filepath.Join(bus, addr))
		if err != nil || !dev.isGPU() {
			continue
		}
		gpus = append(gpus, GPU{
			PCIAddress: addr,
			DeviceID:   dev.device,
			Model:      modelName(dev.device),
		})
	}
	return gpus, nil
}

// pciDevice holds the identifying sysfs attributes of one PCI function, with
// the 0x prefixes stripped.
type pciDevice struct {
	vendor string
	device string
	class  string
}

func readPCIDevice(dir string) (pciDevice, error) {
	var dev pciDevice
	for name, dst := range map[string]*string{
		"vendor": &dev.vendor,
		"device": &dev.device,
		"class":  &dev.class,
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return pciDevice{}, err
		}
		*dst = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"))
	}
	return dev, nil
}

// isGPU reports whether the function is an NVIDIA VGA (0300) or 3D (0302)
// controller. Docker's "gpu" capability is served by the NVIDIA container
// toolkit, so other vendors are not counted.
func (p pciDevice) isGPU() bool {
	if p.vendor != VendorNVIDIA || len(p.class) < 4 {
		return false
	}
	return slices.Contains([]string{classVGA, class3D}, p.class[:4])
}

const (
	classVGA = "0300"
	class3D  = "0302"
)

// nvidiaModels names common datacenter and workstation parts by device ID.
var nvidiaModels = map[string]string{
	"2330": "H100 SXM5 80GB",
	"2331": "H100 PCIe",
	"2335": "H200",
	"20b0": "A100 SXM4 40GB",
	"20b2": "A100 SXM4 80GB",
	"20b5": "A100 PCIe 80GB",
	"2235": "A40",
	"26b5": "L40",
	"27b8": "L4",
	"1eb8": "T4",
	"1db4": "V100 PCIe 16GB",
	"2684": "RTX 4090",
}

func modelName(deviceID string) string {
	if name, ok := nvidiaModels[deviceID]; ok {
		return name
	}
	return "NVIDIA device " + deviceID
}
