// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

// PlatformSensors returns the sensors of the host.
func PlatformSensors() []Sensor { return SysfsSensors("/sys") }
