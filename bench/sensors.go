// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sensor is a hardware quantity sampled during a run.
type Sensor struct {
	Name string
	Unit string
	Read func() (float64, error)
}

// Sensor names.
const (
	SensorCPUFrequency = "cpu_frequency"
	SensorGPUFrequency = "gpu_frequency"
	SensorTemperature  = "temperature"
)

// SysfsSensors returns the sensors exposed by a sysfs
// tree mounted at root.
// CPU frequency is averaged over every CPU and
// temperature is the maximum of every thermal zone.
func SysfsSensors(root string) []Sensor {
	var ss []Sensor
	glob := func(pattern string) []string {
		m, _ := filepath.Glob(filepath.Join(root, pattern))
		return m
	}
	if files := glob("devices/system/cpu/cpu[0-9]*/cpufreq/scaling_cur_freq"); len(files) > 0 {
		ss = append(ss, Sensor{
			Name: SensorCPUFrequency,
			Unit: "MHz",
			Read: func() (float64, error) { return readAvg(files, 1e-3) },
		})
	}
	if files := glob("class/drm/card[0-9]*/gt_cur_freq_mhz"); len(files) > 0 {
		ss = append(ss, Sensor{
			Name: SensorGPUFrequency,
			Unit: "MHz",
			Read: func() (float64, error) { return readMax(files, 1) },
		})
	} else if files := glob("class/devfreq/*gpu*/cur_freq"); len(files) > 0 {
		ss = append(ss, Sensor{
			Name: SensorGPUFrequency,
			Unit: "MHz",
			Read: func() (float64, error) { return readMax(files, 1e-6) },
		})
	}
	if files := glob("class/thermal/thermal_zone[0-9]*/temp"); len(files) > 0 {
		ss = append(ss, Sensor{
			Name: SensorTemperature,
			Unit: "C",
			Read: func() (float64, error) { return readMax(files, 1e-3) },
		})
	}
	return ss
}

var errNoReading = errors.New("bench: no sensor reading")

func readValue(name string) (float64, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}

// readAvg averages the readable files in names.
func readAvg(names []string, scale float64) (float64, error) {
	var sum float64
	var n int
	var err error
	for _, name := range names {
		x, e := readValue(name)
		if e != nil {
			err = e
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0, errors.Join(errNoReading, err)
	}
	return sum / float64(n) * scale, nil
}

// readMax returns the maximum of the readable files in
// names.
func readMax(names []string, scale float64) (float64, error) {
	var m float64
	var n int
	var err error
	for _, name := range names {
		x, e := readValue(name)
		if e != nil {
			err = e
			continue
		}
		if n == 0 || x > m {
			m = x
		}
		n++
	}
	if n == 0 {
		return 0, errors.Join(errNoReading, err)
	}
	return m * scale, nil
}
