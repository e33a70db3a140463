//go:build !darwin

package world

import (
	"spatial3d/internal/compute"

	log "github.com/sirupsen/logrus"
)

// Disabled outside macOS: WebGPU and raylib's EGL context conflict on
// NVIDIA/X11. Selection keeps the CPU sphere test.
func newPlatformCuller(capacity uint32) (*compute.SphereCuller, error) {
	log.Info("Compute: GPU culling disabled on this platform (EGL conflict workaround)")
	return nil, compute.ErrUnavailable
}
