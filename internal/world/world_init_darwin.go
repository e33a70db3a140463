//go:build darwin

package world

import (
	"spatial3d/internal/compute"

	log "github.com/sirupsen/logrus"
)

// Metal runs WebGPU next to raylib's OpenGL context without trouble.
func newPlatformCuller(capacity uint32) (*compute.SphereCuller, error) {
	info, err := compute.Initialize()
	if err != nil {
		return nil, err
	}
	log.Infof("Compute: %s", info)
	return compute.NewSphereCuller(capacity)
}
