// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// zbcstat dumps a Prometheus text-format snapshot of a zoned device's
// capacity and zone-condition breakdown, in the same shape as
// tcgdiskstat's security-feature metrics.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/Spetebroot/libzbc/pkg/zbc"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/ata"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/block"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/fake"
	_ "github.com/Spetebroot/libzbc/pkg/zbc/scsi"
)

type metricCollector struct {
	m []prometheus.Metric
}

func (mc *metricCollector) Collect(c chan<- prometheus.Metric) {
	for _, m := range mc.m {
		c <- m
	}
}

func (mc *metricCollector) Describe(c chan<- *prometheus.Desc) {}

var (
	mSectors = prometheus.NewDesc(
		"zbc_device_sectors", "Total addressable sectors on the device",
		[]string{"device", "transport", "model"}, nil)
	mZoneCount = prometheus.NewDesc(
		"zbc_device_zone_count", "Number of zones in a given condition",
		[]string{"device", "condition"}, nil)
)

func collectDevice(device string) ([]prometheus.Metric, error) {
	h, err := zbc.Open(device, 0)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	info := h.Info()
	metrics := []prometheus.Metric{
		prometheus.MustNewConstMetric(mSectors, prometheus.GaugeValue,
			float64(info.Sectors), device, info.Transport.String(), info.Model.String()),
	}

	zones, err := h.ListZones(0, zbc.ReportAll)
	if err != nil {
		return metrics, err
	}
	counts := map[zbc.ZoneCondition]int{}
	for _, z := range zones {
		counts[z.Condition]++
	}
	for cond, n := range counts {
		metrics = append(metrics, prometheus.MustNewConstMetric(mZoneCount, prometheus.GaugeValue,
			float64(n), device, cond.String()))
	}
	return metrics, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <device> [device...]\n", os.Args[0])
		os.Exit(2)
	}

	mc := &metricCollector{}
	for _, device := range os.Args[1:] {
		metrics, err := collectDevice(device)
		mc.m = append(mc.m, metrics...)
		if err != nil {
			log.Printf("%s: %v", device, err)
		}
	}

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(mc)

	mfs, err := reg.Gather()
	if err != nil {
		log.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			log.Fatalf("failed to serialize metrics: %v", err)
		}
	}
}
