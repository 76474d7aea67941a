// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// zbcls prints device information and zone reports, the command-line
// counterpart to the zbc_report_zones/zbc_list_zones library calls.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Spetebroot/libzbc/pkg/cmdutil"
	"github.com/Spetebroot/libzbc/pkg/zbc"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/ata"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/block"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/fake"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/scsi"
)

const (
	programName = "zbcls"
	programDesc = "List zoned storage devices and their zones"
)

type context struct{}

type infoCmd struct {
	Device string `arg:"" type:"accessiblefile" help:"Path to the zoned device"`
}

type zonesCmd struct {
	Device string `arg:"" type:"accessiblefile" help:"Path to the zoned device"`
	Start  uint64 `flag:"" default:"0" help:"Starting sector"`
}

var cli struct {
	Info  infoCmd  `cmd:"" help:"Print device identity and capabilities"`
	Zones zonesCmd `cmd:"" help:"Print the zone report"`
}

func (c *infoCmd) Run(*context) error {
	h, err := zbc.Open(c.Device, 0)
	if err != nil {
		return err
	}
	defer h.Close()

	fmt.Println(h.Info())
	return nil
}

func (c *zonesCmd) Run(*context) error {
	h, err := zbc.Open(c.Device, 0)
	if err != nil {
		return err
	}
	defer h.Close()

	zones, err := h.ListZones(c.Start, zbc.ReportAll)
	if err != nil {
		return err
	}
	for _, z := range zones {
		fmt.Println(z.String())
	}
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.NamedMapper("accessiblefile", cmdutil.AccessibleFileMapper()),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}))

	err := ctx.Run(&context{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	ctx.FatalIfErrorf(err)
}
