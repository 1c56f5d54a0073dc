package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"godio/config"
	"godio/core"
)

var (
	planOpts = struct {
		output string
		all    bool
	}{}

	planCmd = &cobra.Command{
		Use:   "plan <table>",
		Short: "Show the register writes a table produces",
		Long:  "Apply a table to simulated registers in their reset state and print every register that changes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			printFindings(cmd.ErrOrStderr(), config.Lint(table))

			plan := buildPlan(table, planOpts.all)
			return writePlan(cmd.OutOrStdout(), plan, planOpts.output)
		},
	}
)

func init() {
	planCmd.Flags().StringVarP(&planOpts.output, "output", "o", "text", "output format (text, json, yaml)")
	planCmd.Flags().BoolVar(&planOpts.all, "all", false, "list unchanged registers too")
}

// Change is one configuration register of the plan
type Change struct {
	Register string `json:"register" yaml:"register"`
	Address  string `json:"address" yaml:"address"`
	Before   string `json:"before" yaml:"before"`
	After    string `json:"after" yaml:"after"`
}

// Plan is the outcome of applying a table to reset-state registers
type Plan struct {
	ClockEnable string   `json:"clock_enable" yaml:"clock_enable"`
	Changes     []Change `json:"changes" yaml:"changes"`
	Faults      []string `json:"faults,omitempty" yaml:"faults,omitempty"`
}

func buildPlan(table core.ConfigTable, all bool) Plan {
	sim := core.NewResetSimBus()
	core.SetBus(sim)
	defer core.SetBus(nil)
	core.ClearFaults()

	before := sim.Snapshot()
	core.Init(table)
	after := sim.Snapshot()

	ports := config.Ports(table)
	plan := Plan{ClockEnable: core.Hex32(core.ClockEnableMask(ports...))}
	for _, port := range ports {
		bank := core.MustBank(port)
		for _, reg := range core.BankRegisters {
			if reg.Offset == core.OffsetIDR || reg.Offset == core.OffsetODR {
				continue
			}
			addr := bank.Base + reg.Offset
			if before[addr] == after[addr] && !all {
				continue
			}
			plan.Changes = append(plan.Changes, Change{
				Register: "GPIO" + port.String() + "_" + reg.Name,
				Address:  core.Hex32(uint32(addr)),
				Before:   core.Hex32(before[addr]),
				After:    core.Hex32(after[addr]),
			})
		}
	}
	for _, f := range core.Faults() {
		plan.Faults = append(plan.Faults, f.Error())
	}
	return plan
}

func writePlan(w io.Writer, plan Plan, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(plan)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "RCC_AHB1ENR |= %s\n", plan.ClockEnable)
	for _, c := range plan.Changes {
		fmt.Fprintf(w, "%-14s %s  %s -> %s\n", c.Register, c.Address, c.Before, c.After)
	}
	for _, f := range plan.Faults {
		fmt.Fprintln(w, f)
	}
	return nil
}

func printFindings(w io.Writer, findings []config.Finding) {
	for _, f := range findings {
		fmt.Fprintln(w, f)
	}
}
