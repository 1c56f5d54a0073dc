package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"godio/config"
	"godio/core"
)

var errQuit = errors.New("quit")

var (
	shellOpts = struct {
		sim bool
	}{}

	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Interactive register and pin shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shellOpts.sim {
				core.SetBus(core.NewResetSimBus())
				defer core.SetBus(nil)
			} else {
				closeBus, err := useDevice()
				if err != nil {
					return err
				}
				defer closeBus()
			}

			sh := &shell{out: cmd.OutOrStdout()}
			return sh.run(cmd.InOrStdin())
		},
	}
)

func init() {
	shellCmd.Flags().BoolVar(&shellOpts.sim, "sim", false, "use simulated registers instead of the device")
}

type shell struct {
	out io.Writer
}

func (s *shell) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		err := s.exec(scanner.Text())
		if err == errQuit {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

// exec runs one command line
func (s *shell) exec(line string) (err error) {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	// Bad ports and pins panic in the engine; report them instead
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	switch args[0] {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		s.help()

	case "peek":
		if len(args) != 2 {
			return errors.New("usage: peek <address>")
		}
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, core.Hex32(core.RegisterRead(addr)))

	case "poke":
		if len(args) != 3 {
			return errors.New("usage: poke <address> <value>")
		}
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		value, err := parseValue(args[2])
		if err != nil {
			return err
		}
		core.RegisterWrite(addr, value)

	case "read":
		if len(args) != 2 {
			return errors.New("usage: read <pin>")
		}
		port, pin, err := core.ParsePin(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, core.Read(port, pin))

	case "write":
		if len(args) != 3 {
			return errors.New("usage: write <pin> <high|low>")
		}
		port, pin, err := core.ParsePin(args[1])
		if err != nil {
			return err
		}
		var state core.PinState
		switch strings.ToLower(args[2]) {
		case "high", "1":
			state = core.High
		case "low", "0":
			state = core.Low
		default:
			return fmt.Errorf("bad level %q", args[2])
		}
		core.Write(port, pin, state)

	case "toggle":
		if len(args) != 2 {
			return errors.New("usage: toggle <pin>")
		}
		port, pin, err := core.ParsePin(args[1])
		if err != nil {
			return err
		}
		core.Toggle(port, pin)

	case "config":
		if len(args) != 2 {
			return errors.New("usage: config <pin>")
		}
		port, pin, err := core.ParsePin(args[1])
		if err != nil {
			return err
		}
		cfg := core.ReadConfig(port, pin)
		fmt.Fprintf(s.out, "%s mode=%s output_type=%s speed=%s pull=%s function=%s\n",
			core.PinName(port, pin), cfg.Mode, cfg.OutputType, cfg.Speed, cfg.Pull, cfg.Function)

	case "apply":
		if len(args) != 2 {
			return errors.New("usage: apply <table>")
		}
		table, err := config.LoadFile(args[1])
		if err != nil {
			return err
		}
		printFindings(s.out, config.Lint(table))
		core.Apply(table)
		fmt.Fprintf(s.out, "applied %d entries\n", len(table))

	case "dump":
		if len(args) != 2 {
			return errors.New("usage: dump <port>")
		}
		port, _, err := core.ParsePin("P" + args[1] + "0")
		if err != nil {
			return err
		}
		bank := core.MustBank(port)
		for _, reg := range core.BankRegisters {
			fmt.Fprintf(s.out, "GPIO%s_%-8s %s\n", port, reg.Name, core.Hex32(core.RegisterRead(bank.Base+reg.Offset)))
		}

	case "faults":
		core.DumpFaults()

	case "clear":
		core.ClearFaults()

	default:
		return fmt.Errorf("unknown command %q (type 'help')", args[0])
	}
	return nil
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  peek <address>          read a register")
	fmt.Fprintln(s.out, "  poke <address> <value>  write a register")
	fmt.Fprintln(s.out, "  read <pin>              read a pin, e.g. read PC13")
	fmt.Fprintln(s.out, "  write <pin> <high|low>  drive an output pin")
	fmt.Fprintln(s.out, "  toggle <pin>            invert an output pin")
	fmt.Fprintln(s.out, "  config <pin>            decode the pin configuration")
	fmt.Fprintln(s.out, "  apply <table>           apply a table file")
	fmt.Fprintln(s.out, "  dump <port>             print the registers of a port, e.g. dump A")
	fmt.Fprintln(s.out, "  faults                  print recorded faults")
	fmt.Fprintln(s.out, "  clear                   clear recorded faults")
	fmt.Fprintln(s.out, "  quit                    leave the shell")
}
