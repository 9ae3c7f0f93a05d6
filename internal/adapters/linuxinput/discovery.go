//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

type DeviceInfo struct {
	Path       string
	Name       string
	IsVirtual  bool
	IsPointer  bool
	IsKeyboard bool
}

func ListInputDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}
		devices = append(devices, describeDevice(dev, path.Name))
		_ = dev.Close()
	}
	return devices, nil
}

// openHotkeySources opens every physical device that can emit all of codes.
// With devicePath set, only that device is considered.
func openHotkeySources(devicePath string, codes ...uint16) ([]*evdev.InputDevice, error) {
	if devicePath != "" {
		dev, err := openInputDevice(devicePath)
		if err != nil {
			return nil, err
		}
		for _, code := range codes {
			if !deviceSupportsCode(dev, code) {
				_ = dev.Close()
				return nil, fmt.Errorf("%s does not expose %s", devicePath, FormatCodeName(code))
			}
		}
		return []*evdev.InputDevice{dev}, nil
	}

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]*evdev.InputDevice, 0, len(paths))
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}
		info := describeDevice(dev, path.Name)
		if info.IsVirtual || !supportsAll(dev, codes) {
			_ = dev.Close()
			continue
		}
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		names := make([]string, 0, len(codes))
		for _, code := range codes {
			names = append(names, FormatCodeName(code))
		}
		return nil, fmt.Errorf("no readable keyboard exposes %s; use --list-devices and pass --device", strings.Join(names, "/"))
	}
	return devices, nil
}

func describeDevice(dev *evdev.InputDevice, fallbackName string) DeviceInfo {
	name := fallbackName
	if actualName, err := dev.Name(); err == nil && actualName != "" {
		name = actualName
	}
	return DeviceInfo{
		Path:       dev.Path(),
		Name:       name,
		IsVirtual:  deviceIsVirtual(dev, name),
		IsPointer:  deviceIsPointer(dev),
		IsKeyboard: deviceSupportsCode(dev, uint16(evdev.KEY_A)),
	}
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

func supportsAll(device *evdev.InputDevice, codes []uint16) bool {
	for _, code := range codes {
		if !deviceSupportsCode(device, code) {
			return false
		}
	}
	return true
}

func deviceSupportsCode(device *evdev.InputDevice, code uint16) bool {
	needle := evdev.EvCode(code)
	for _, c := range device.CapableEvents(evdev.EV_KEY) {
		if c == needle {
			return true
		}
	}
	return false
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool", virtualDeviceName} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func deviceIsPointer(device *evdev.InputDevice) bool {
	var hasRelX, hasRelY bool
	for _, code := range device.CapableEvents(evdev.EV_REL) {
		if code == evdev.REL_X {
			hasRelX = true
		}
		if code == evdev.REL_Y {
			hasRelY = true
		}
	}
	if hasRelX && hasRelY {
		return true
	}
	return len(device.CapableEvents(evdev.EV_ABS)) > 0
}
