// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build !linux

package bench

// PlatformSensors returns the sensors of the host.
// No sensors are supported on this platform.
func PlatformSensors() []Sensor { return nil }
