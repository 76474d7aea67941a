// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// zbcctl manages zone state: reset, open, close and finish, the
// command-line counterpart to zbc_zone_operation.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/Spetebroot/libzbc/pkg/cmdutil"
	"github.com/Spetebroot/libzbc/pkg/zbc"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/ata"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/block"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/fake"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/scsi"
)

const (
	programName = "zbcctl"
	programDesc = "Manage zone state on a zoned storage device"
)

// context is the context struct required by kong command line parser.
type context struct {
	op string
	do func(*zbc.Handle, uint64, bool) error
}

type zoneCmd struct {
	Device string `arg:"" type:"accessiblefile" help:"Path to the zoned device"`
	Start  uint64 `arg:"" optional:"" help:"Zone start sector"`
	All    bool   `flag:"" help:"Apply to every eligible zone instead of one"`
	Force  bool   `flag:"" help:"Skip the confirmation prompt for --all"`
}

var cli struct {
	Reset  zoneCmd `cmd:"" help:"Reset a zone's write pointer"`
	Open   zoneCmd `cmd:"" help:"Explicitly open a zone"`
	Close  zoneCmd `cmd:"" help:"Close a zone"`
	Finish zoneCmd `cmd:"" help:"Finish a zone"`
}

// confirm prompts before an --all operation unless --force was given or
// stdin isn't a terminal, in which case it refuses outright rather than
// silently skipping the confirmation.
func (c *zoneCmd) confirm(ctx *context) error {
	if !c.All || c.Force {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("refusing to %s all zones non-interactively without --force", ctx.op)
	}
	fmt.Printf("This will %s every eligible zone on %s. Continue? [y/N] ", ctx.op, c.Device)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.ToLower(strings.TrimSpace(line)) != "y" {
		return fmt.Errorf("aborted")
	}
	return nil
}

func (c *zoneCmd) Run(ctx *context) error {
	if err := c.confirm(ctx); err != nil {
		return err
	}
	h, err := zbc.Open(c.Device, 0)
	if err != nil {
		return err
	}
	defer h.Close()
	return ctx.do(h, c.Start, c.All)
}

func main() {
	k := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.NamedMapper("accessiblefile", cmdutil.AccessibleFileMapper()),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}))

	ops := map[string]struct {
		op string
		do func(*zbc.Handle, uint64, bool) error
	}{
		"reset":  {"reset", (*zbc.Handle).ResetWP},
		"open":   {"open", (*zbc.Handle).OpenZone},
		"close":  {"close", (*zbc.Handle).CloseZone},
		"finish": {"finish", (*zbc.Handle).FinishZone},
	}

	name := strings.Fields(k.Command())[0]
	sel, ok := ops[name]
	if !ok {
		k.FatalIfErrorf(fmt.Errorf("unknown command %q", name))
		return
	}

	err := k.Run(&context{op: sel.op, do: sel.do})
	k.FatalIfErrorf(err)
}
