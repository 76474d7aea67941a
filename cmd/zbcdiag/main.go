// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// zbcdiag dumps everything this library can learn about a device: its
// identity, capabilities and full zone list, rendered with go-spew the
// same way tcgsdiag dumps TCG discovery structures.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/Spetebroot/libzbc/pkg/zbc"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/ata"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/block"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/fake"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/scsi"
)

func main() {
	spew.Config.Indent = "  "

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <device>\n", os.Args[0])
		os.Exit(2)
	}

	h, err := zbc.Open(os.Args[1], 0)
	if err != nil {
		log.Fatalf("zbc.Open: %v", err)
	}
	defer h.Close()

	fmt.Printf("===> DEVICE INFORMATION\n")
	spew.Dump(h.Info())

	fmt.Printf("\n===> ZONE REPORT\n")
	zones, err := h.ListZones(0, zbc.ReportAll)
	if err != nil {
		log.Fatalf("ListZones: %v", err)
	}
	spew.Dump(zones)

	fmt.Printf("\n%d zones total\n", len(zones))
}
