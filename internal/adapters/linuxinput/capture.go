//go:build linux

package linuxinput

import (
	"fmt"
	"sort"
	"time"

	evdev "github.com/holoplot/go-evdev"
)

// CaptureNextKeyCode waits for the next key press on any physical keyboard
// (or on devicePath) so a hotkey can be chosen by pressing it.
func CaptureNextKeyCode(devicePath string, timeout time.Duration) (uint16, error) {
	devices, err := openCaptureDevices(devicePath)
	if err != nil {
		return 0, err
	}
	defer closeInputDevices(devices)

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	done := make(chan struct{})
	codeCh := make(chan uint16, 1)
	for _, dev := range devices {
		go captureDeviceLoop(dev, done, codeCh)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-codeCh:
		close(done)
		return code, nil
	case <-timer.C:
		close(done)
		return 0, fmt.Errorf("timed out after %s waiting for a key press", timeout)
	}
}

func captureDeviceLoop(dev *evdev.InputDevice, done <-chan struct{}, codeCh chan<- uint16) {
	for {
		select {
		case <-done:
			return
		default:
		}

		event, err := dev.ReadOne()
		if err != nil {
			if isDeviceClosedError(err) {
				return
			}
			wait := 25 * time.Millisecond
			if isWouldBlockError(err) {
				wait = 10 * time.Millisecond
			}
			if !sleepUntilStopped(done, wait) {
				return
			}
			continue
		}
		if event == nil || event.Type != evdev.EV_KEY || event.Value != 1 {
			continue
		}
		// Mouse buttons are not usable as global hotkeys here.
		if event.Code >= evdev.BTN_MISC && event.Code < evdev.KEY_OK {
			continue
		}
		select {
		case codeCh <- uint16(event.Code):
		default:
		}
		return
	}
}

func openCaptureDevices(devicePath string) ([]*evdev.InputDevice, error) {
	var candidates []string
	if devicePath != "" {
		candidates = []string{devicePath}
	} else {
		paths, err := evdev.ListDevicePaths()
		if err != nil {
			return nil, err
		}
		sort.Slice(paths, func(i, j int) bool {
			return paths[i].Path < paths[j].Path
		})
		for _, path := range paths {
			candidates = append(candidates, path.Path)
		}
	}

	devices := make([]*evdev.InputDevice, 0, len(candidates))
	for _, path := range candidates {
		dev, err := openInputDevice(path)
		if err != nil {
			if devicePath != "" {
				return nil, err
			}
			continue
		}
		info := describeDevice(dev, path)
		if info.IsVirtual || !info.IsKeyboard {
			_ = dev.Close()
			continue
		}
		if err := dev.NonBlock(); err != nil {
			_ = dev.Close()
			continue
		}
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no readable keyboards found")
	}
	return devices, nil
}
