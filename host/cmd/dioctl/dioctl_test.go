package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godio/core"
	"godio/host/monitor"
)

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildPlan(t *testing.T) {
	table := core.ConfigTable{
		{Port: core.PortA, Pin: 5, Mode: core.ModeOutput, Speed: core.SpeedVeryHigh},
		{Port: core.PortC, Pin: 13, Mode: core.ModeInput, Pull: core.PullUp},
	}
	plan := buildPlan(table, false)

	if plan.ClockEnable != "0x00000005" {
		t.Errorf("ClockEnable = %s", plan.ClockEnable)
	}
	expected := map[string]string{
		"GPIOA_MODER":   "0xA8000400",
		"GPIOA_OSPEEDR": "0x0C000C00",
		"GPIOC_PUPDR":   "0x04000000",
	}
	if len(plan.Changes) != len(expected) {
		t.Fatalf("got %d changes, expected %d: %+v", len(plan.Changes), len(expected), plan.Changes)
	}
	for _, c := range plan.Changes {
		if expected[c.Register] != c.After {
			t.Errorf("%s after = %s, expected %s", c.Register, c.After, expected[c.Register])
		}
	}
	if len(plan.Faults) != 0 {
		t.Errorf("unexpected faults %v", plan.Faults)
	}

	all := buildPlan(table, true)
	if len(all.Changes) != 12 {
		t.Errorf("--all lists %d registers, expected 12", len(all.Changes))
	}
}

func TestBuildPlanReportsFaults(t *testing.T) {
	plan := buildPlan(core.ConfigTable{{Port: core.PortB, Pin: 2, Pull: core.PullMode(3)}}, false)
	if len(plan.Faults) != 1 || !strings.Contains(plan.Faults[0], "INVALID_VALUE PB2") {
		t.Errorf("faults = %v", plan.Faults)
	}
}

func TestWritePlanFormats(t *testing.T) {
	plan := buildPlan(core.ConfigTable{{Port: core.PortA, Pin: 0, Mode: core.ModeOutput}}, false)

	var text bytes.Buffer
	if err := writePlan(&text, plan, "text"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "RCC_AHB1ENR |= 0x00000001") || !strings.Contains(text.String(), "GPIOA_MODER") {
		t.Errorf("text plan:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := writePlan(&js, plan, "json"); err != nil {
		t.Fatal(err)
	}
	var back Plan
	if err := json.Unmarshal(js.Bytes(), &back); err != nil || len(back.Changes) != 1 {
		t.Errorf("json plan %q: %v", js.String(), err)
	}

	var yml bytes.Buffer
	if err := writePlan(&yml, plan, "yaml"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(yml.String(), "clock_enable:") {
		t.Errorf("yaml plan:\n%s", yml.String())
	}

	if err := writePlan(io.Discard, plan, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPlanCommand(t *testing.T) {
	path := writeTable(t, "board.yaml", "pins:\n  - pin: PA5\n    mode: output\n")
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"plan", path})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(out.String(), "0xA8000000 -> 0xA8000400") {
		t.Errorf("plan output:\n%s", out.String())
	}
}

func useSim(t *testing.T) *core.SimBus {
	t.Helper()
	sim := core.NewResetSimBus()
	core.SetBus(sim)
	core.ClearFaults()
	core.SetDebugWriter(func(string) {})
	t.Cleanup(func() { core.SetBus(nil) })
	return sim
}

func TestShellCommands(t *testing.T) {
	sim := useSim(t)
	bank := core.MustBank(core.PortA)
	sim.Mirror(bank.Output, bank.Input)

	var out bytes.Buffer
	sh := &shell{out: &out}

	steps := []struct {
		line   string
		output string
	}{
		{"poke 0x40020000 0x400", ""},
		{"peek 0x40020000", "0x00000400\n"},
		{"write PA5 high", ""},
		{"read pa5", "high\n"},
		{"toggle PA5", ""},
		{"read PA5", "low\n"},
		{"config PA5", "PA5 mode=output output_type=push_pull speed=low pull=none function=af0\n"},
		{"   ", ""},
	}
	for _, step := range steps {
		out.Reset()
		if err := sh.exec(step.line); err != nil {
			t.Errorf("%q: %v", step.line, err)
			continue
		}
		if out.String() != step.output {
			t.Errorf("%q printed %q, expected %q", step.line, out.String(), step.output)
		}
	}
}

func TestShellErrors(t *testing.T) {
	useSim(t)
	sh := &shell{out: io.Discard}

	for _, line := range []string{
		"peek",
		"peek 0x40020001",
		"poke 0x40020000 banana",
		"read PZ1",
		"write PA5 maybe",
		"toggle",
		"dump Q",
		"frobnicate",
		`peek "unterminated`,
	} {
		if err := sh.exec(line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}

	if err := sh.exec("quit"); err != errQuit {
		t.Errorf("quit returned %v", err)
	}
}

func TestShellApplyAndDump(t *testing.T) {
	useSim(t)
	path := writeTable(t, "t.json", `{"pins":[{"pin":"PB0","mode":"output"}]}`)

	var out bytes.Buffer
	sh := &shell{out: &out}
	if err := sh.exec("apply '" + path + "'"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out.Reset()
	if err := sh.exec("dump B"); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out.String(), "GPIOB_MODER    0x00000281") {
		t.Errorf("dump output:\n%s", out.String())
	}
}

func TestShellRun(t *testing.T) {
	useSim(t)
	var out bytes.Buffer
	sh := &shell{out: &out}
	in := strings.NewReader("write PC13 1\nbogus\nquit\nwrite PC13 0\n")
	if err := sh.run(in); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `Error: unknown command "bogus"`) {
		t.Errorf("output:\n%s", out.String())
	}
	// Lines after quit are not executed
	if core.RegisterRead(core.MustBank(core.PortC).Output)&(1<<13) == 0 {
		t.Error("PC13 should still be high")
	}
}

func TestRunMonitor(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		r := core.NewFrameReporter(func(frame []byte) { pw.Write(frame) })
		r.Log("button pressed")
		pw.Close()
	}()

	var out bytes.Buffer
	if err := runMonitor(context.Background(), monitor.New(pr), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "button pressed") || !strings.Contains(out.String(), "log      1") {
		t.Errorf("monitor output:\n%s", out.String())
	}
}

func TestCheckWindow(t *testing.T) {
	for _, addr := range []core.Address{0x40020000, 0x40020414, 0x40021C24, 0x40021FFC} {
		if err := checkWindow(addr); err != nil {
			t.Errorf("checkWindow(%#x): %v", addr, err)
		}
	}
	for _, addr := range []core.Address{0x4001FFFC, 0x40022000, core.RCCAHB1ENR} {
		if err := checkWindow(addr); err == nil {
			t.Errorf("checkWindow(%#x): expected error", addr)
		}
	}
}
