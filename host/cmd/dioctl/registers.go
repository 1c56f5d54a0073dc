package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"godio/config"
	"godio/core"
)

// The GPIO banks A..H span one contiguous AHB1 block
const (
	gpioBase core.Address = 0x40020000
	gpioSize              = 0x2000
)

var (
	devOpts = struct {
		device string
		phys   uint64
	}{}

	applyOpts = struct {
		force bool
	}{}

	applyCmd = &cobra.Command{
		Use:   "apply <table>",
		Short: "Apply a table to the live registers",
		Long:  "Apply a table through the register device. The clocks of every port in the table must already be enabled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			findings := config.Lint(table)
			printFindings(cmd.ErrOrStderr(), findings)
			for _, f := range findings {
				if f.Severity == config.Error && !applyOpts.force {
					return fmt.Errorf("table has errors; use --force to apply anyway")
				}
			}

			closeBus, err := useDevice()
			if err != nil {
				return err
			}
			defer closeBus()

			core.ClearFaults()
			core.Init(table)
			if n := core.FaultCount(); n > 0 {
				return fmt.Errorf("%d entries reported faults", n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d entries\n", len(table))
			return nil
		},
	}

	peekCmd = &cobra.Command{
		Use:   "peek <address>",
		Short: "Read a register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if err := checkWindow(addr); err != nil {
				return err
			}
			closeBus, err := useDevice()
			if err != nil {
				return err
			}
			defer closeBus()

			fmt.Fprintln(cmd.OutOrStdout(), core.Hex32(core.RegisterRead(addr)))
			return nil
		},
	}

	pokeCmd = &cobra.Command{
		Use:   "poke <address> <value>",
		Short: "Write a register",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if err := checkWindow(addr); err != nil {
				return err
			}
			value, err := parseValue(args[1])
			if err != nil {
				return err
			}
			closeBus, err := useDevice()
			if err != nil {
				return err
			}
			defer closeBus()

			core.RegisterWrite(addr, value)
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{applyCmd, peekCmd, pokeCmd, shellCmd} {
		cmd.Flags().StringVarP(&devOpts.device, "device", "d", "/dev/mem", "physical memory device")
		cmd.Flags().Uint64Var(&devOpts.phys, "phys", uint64(gpioBase), "physical address of GPIOA")
	}
	applyCmd.Flags().BoolVarP(&applyOpts.force, "force", "f", false, "apply even when lint reports errors")
}

// useDevice installs the register device as the bus
func useDevice() (func() error, error) {
	bus, closeBus, err := openDevice(devOpts.device, devOpts.phys)
	if err != nil {
		return nil, err
	}
	core.SetBus(bus)
	return func() error {
		core.SetBus(nil)
		return closeBus()
	}, nil
}

func parseAddress(s string) (core.Address, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	if v%4 != 0 {
		return 0, fmt.Errorf("address %q is not word aligned", s)
	}
	return core.Address(v), nil
}

// checkWindow rejects addresses outside the mapped GPIO block
func checkWindow(addr core.Address) error {
	if addr < gpioBase || addr >= gpioBase+gpioSize {
		return fmt.Errorf("address %s is outside the GPIO block %s..%s",
			core.Hex32(uint32(addr)), core.Hex32(uint32(gpioBase)), core.Hex32(uint32(gpioBase+gpioSize-1)))
	}
	return nil
}

func parseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q: %w", s, err)
	}
	return uint32(v), nil
}
