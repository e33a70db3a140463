package compute

import (
	"errors"
	"fmt"

	"spatial3d/internal/culling"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnavailable is returned when no GPU device was initialized.
var ErrUnavailable = errors.New("compute: GPU not initialized")

// Sphere is a world bounding sphere packed as a vec4.
type Sphere struct {
	X, Y, Z float32
	Radius  float32
}

// SphereFrom packs the world sphere of a bounding volume.
func SphereFrom(s *culling.BoundingSphere) Sphere {
	return Sphere{X: s.CenterWorld.X, Y: s.CenterWorld.Y, Z: s.CenterWorld.Z, Radius: s.RadiusWorld}
}

// cullParams mirrors the uniform block: 6 planes as vec4 (normal, d), the
// sphere count, then padding to 16 bytes.
type cullParams struct {
	Planes [6][4]float32
	Count  uint32
	_      [3]uint32
}

const sphereCullShader = `
struct Params {
    planes: array<vec4<f32>, 6>,
    count: u32,
}

@group(0) @binding(0) var<storage, read> spheres: array<vec4<f32>>;
@group(0) @binding(1) var<uniform> params: Params;
@group(0) @binding(2) var<storage, read_write> visible: array<u32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= params.count) {
        return;
    }

    let s = spheres[i];
    var inside = 1u;
    for (var p = 0u; p < 6u; p = p + 1u) {
        let plane = params.planes[p];
        if (dot(plane.xyz, s.xyz) + plane.w < -s.w) {
            inside = 0u;
            break;
        }
    }
    visible[i] = inside;
}
`

const workgroupSize = 256

// SphereCuller tests bounding spheres against a frustum on the GPU, with the
// same predicate as BoundingSphere.IsInFrustum.
type SphereCuller struct {
	system *System
	kernel *Kernel

	sphereBuffer  *Buffer
	paramsBuffer  *Buffer
	visibleBuffer *Buffer

	maxSpheres uint32
}

// NewSphereCuller allocates buffers for up to maxSpheres spheres per call.
func NewSphereCuller(maxSpheres uint32) (*SphereCuller, error) {
	sys := Get()
	if sys == nil {
		return nil, ErrUnavailable
	}
	if maxSpheres == 0 {
		return nil, fmt.Errorf("compute: sphere culler needs a positive capacity")
	}

	kernel, err := sys.Kernel("sphere_cull", sphereCullShader, "main")
	if err != nil {
		return nil, err
	}

	sphereBuffer, err := sys.NewBuffer("cull_spheres", uint64(maxSpheres)*16,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	paramsBuffer, err := sys.NewBuffer("cull_params", 112,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		sphereBuffer.Release()
		return nil, err
	}

	visibleBuffer, err := sys.NewBuffer("cull_visible", uint64(maxSpheres)*4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		sphereBuffer.Release()
		paramsBuffer.Release()
		return nil, err
	}

	return &SphereCuller{
		system:        sys,
		kernel:        kernel,
		sphereBuffer:  sphereBuffer,
		paramsBuffer:  paramsBuffer,
		visibleBuffer: visibleBuffer,
		maxSpheres:    maxSpheres,
	}, nil
}

func (sc *SphereCuller) Capacity() int {
	return int(sc.maxSpheres)
}

// Cull returns one visibility flag per sphere. Inputs larger than the
// capacity are processed in batches.
func (sc *SphereCuller) Cull(spheres []Sphere, planes []culling.Plane) ([]bool, error) {
	result := make([]bool, len(spheres))
	params := packPlanes(planes)

	for start := 0; start < len(spheres); start += int(sc.maxSpheres) {
		end := min(start+int(sc.maxSpheres), len(spheres))
		if err := sc.cullBatch(spheres[start:end], &params, result[start:end]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (sc *SphereCuller) cullBatch(spheres []Sphere, params *cullParams, out []bool) error {
	count := uint32(len(spheres))
	params.Count = count

	sc.system.Upload(sc.sphereBuffer, 0, ToBytes(spheres))
	sc.system.Upload(sc.paramsBuffer, 0, ToBytes([]cullParams{*params}))

	groups := (count + workgroupSize - 1) / workgroupSize
	if err := sc.system.Run(sc.kernel, groups, sc.sphereBuffer, sc.paramsBuffer, sc.visibleBuffer); err != nil {
		return fmt.Errorf("sphere cull dispatch: %w", err)
	}

	data, err := sc.system.Download(sc.visibleBuffer, uint64(count)*4)
	if err != nil {
		return fmt.Errorf("sphere cull readback: %w", err)
	}
	for i, v := range fromBytes[uint32](data)[:count] {
		out[i] = v != 0
	}
	return nil
}

func (sc *SphereCuller) Release() {
	if sc.sphereBuffer != nil {
		sc.sphereBuffer.Release()
	}
	if sc.paramsBuffer != nil {
		sc.paramsBuffer.Release()
	}
	if sc.visibleBuffer != nil {
		sc.visibleBuffer.Release()
	}
}

// CPUCull is the reference for the shader. Missing planes (fewer than 6)
// accept everything on that slot.
func CPUCull(spheres []Sphere, planes []culling.Plane) []bool {
	result := make([]bool, len(spheres))
	for i, s := range spheres {
		result[i] = sphereInPlanes(s, planes)
	}
	return result
}

func sphereInPlanes(s Sphere, planes []culling.Plane) bool {
	for _, p := range planes {
		if p.Normal.X*s.X+p.Normal.Y*s.Y+p.Normal.Z*s.Z+p.D < -s.Radius {
			return false
		}
	}
	return true
}

func packPlanes(planes []culling.Plane) cullParams {
	var params cullParams
	for i := range params.Planes {
		if i < len(planes) {
			p := planes[i]
			params.Planes[i] = [4]float32{p.Normal.X, p.Normal.Y, p.Normal.Z, p.D}
		} else {
			// 0·c + 1 >= -r always holds
			params.Planes[i] = [4]float32{0, 0, 0, 1}
		}
	}
	return params
}
