package devices

import "errors"

var (
	// ErrNoSysfs is returned when the host does not expose a PCI bus in sysfs
	ErrNoSysfs = errors.New("sysfs pci bus not available")
)
