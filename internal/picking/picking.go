// Package picking casts rays against mesh triangles.
package picking

import (
	"sort"

	"spatial3d/internal/culling"
	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// IntersectsMesh casts a world ray against the triangles of mesh. With
// fastCheck the first triangle hit is returned, otherwise the closest.
func IntersectsMesh(ray culling.Ray, mesh *engine.Mesh, fastCheck bool) engine.PickingInfo {
	info := engine.PickingInfo{Ray: ray}
	bounds := mesh.Info
	if bounds == nil || len(mesh.Indices) == 0 {
		return info
	}

	sphere := &bounds.BoundingSphere
	if !sphere.IntersectsPoint(ray.Origin) && !ray.IntersectsSphere(sphere, 0) {
		return info
	}
	if !ray.IntersectsBox(&bounds.BoundingBox, 0) {
		return info
	}

	world := mesh.WorldMatrix()
	local := ray.Transform(rl.MatrixInvert(world))

	subMeshes := mesh.SubMeshes
	if mesh.SubMeshIndex != nil && len(subMeshes) > 1 {
		subMeshes = mesh.SubMeshIndex.IntersectsRay(ray)
	}

	var best *culling.IntersectionInfo
	for _, sm := range subMeshes {
		if len(mesh.SubMeshes) > 1 && !ray.IntersectsBox(&sm.Info.BoundingBox, 0) {
			continue
		}
		hit := intersectsSubMesh(local, mesh, sm, fastCheck)
		if hit == nil {
			continue
		}
		if fastCheck || best == nil || hit.Distance < best.Distance {
			best = hit
			best.SubMeshID = sm.ID
			if fastCheck {
				break
			}
		}
	}
	if best == nil {
		return info
	}

	localPoint := local.At(best.Distance)
	worldPoint := rl.Vector3Transform(localPoint, world)

	info.Hit = true
	info.Distance = rl.Vector3Distance(ray.Origin, worldPoint)
	info.PickedPoint = worldPoint
	info.PickedMesh = mesh
	info.BU = best.BU
	info.BV = best.BV
	info.FaceID = best.FaceID
	info.SubMeshID = best.SubMeshID
	return info
}

func intersectsSubMesh(ray culling.Ray, mesh *engine.Mesh, sm *engine.SubMesh, fastCheck bool) *culling.IntersectionInfo {
	step := 3
	if mesh.TriangleStrip {
		step = 1
	}

	var best *culling.IntersectionInfo
	end := sm.IndexStart + sm.IndexCount
	for index := sm.IndexStart; index+2 < end; index += step {
		p0, ok0 := vertex(mesh, index)
		p1, ok1 := vertex(mesh, index+1)
		p2, ok2 := vertex(mesh, index+2)
		if !ok0 || !ok1 || !ok2 {
			continue
		}
		hit := ray.IntersectsTriangle(p0, p1, p2)
		if hit == nil {
			continue
		}
		if fastCheck || best == nil || hit.Distance < best.Distance {
			best = hit
			best.FaceID = index / step
			if fastCheck {
				break
			}
		}
	}
	return best
}

// IntersectsMeshes picks every mesh the ray hits. Results are sorted by
// ascending distance unless fastCheck is set, in which case they keep the
// order of meshes and each one is only a first hit.
func IntersectsMeshes(ray culling.Ray, meshes []*engine.Mesh, fastCheck bool) []engine.PickingInfo {
	var results []engine.PickingInfo
	for _, m := range meshes {
		if info := IntersectsMesh(ray, m, fastCheck); info.Hit {
			results = append(results, info)
		}
	}
	if !fastCheck {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Distance < results[j].Distance
		})
	}
	return results
}

// vertex resolves the position behind Indices[i], false when it is out of range.
func vertex(mesh *engine.Mesh, i int) (rl.Vector3, bool) {
	idx := mesh.Indices[i]
	if idx < 0 || int(idx) >= len(mesh.Positions) {
		return rl.Vector3{}, false
	}
	return mesh.Positions[idx], true
}
