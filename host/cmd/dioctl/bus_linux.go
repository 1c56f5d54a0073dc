//go:build linux

package main

import (
	"godio/core"
	"godio/host/devmem"
)

func openDevice(device string, phys uint64) (core.Bus, func() error, error) {
	mem, err := devmem.Open(device, devmem.Window{
		Phys: phys,
		Base: gpioBase,
		Size: gpioSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return mem, mem.Close, nil
}
