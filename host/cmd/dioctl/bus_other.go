//go:build !linux

package main

import (
	"errors"

	"godio/core"
)

func openDevice(device string, phys uint64) (core.Bus, func() error, error) {
	return nil, nil, errors.New("register access through " + device + " needs Linux")
}
