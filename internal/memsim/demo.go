package memsim

import (
	"math"

	"github.com/zeusync/scenebridge/internal/core/resource"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
)

// Demo builds a small loaded scene: a rotated building with collision geometry,
// a pool of pure water, a proxy, navigation seed points and a box volume.
func Demo() *World {
	const (
		sceneBlueprint    scene.BlueprintHash = 0x00C0FFEE00000001
		buildingBlueprint scene.BlueprintHash = 0x00C0FFEE00000002
	)

	yaw := func(deg float64) transform.Matrix43 {
		q := transform.AxisAngle(transform.Vec3{Z: 1}, deg*math.Pi/180)
		return transform.FromRotation(q, 1, transform.Vec3{})
	}

	root := New(0xfeed, SpatialEntity).Blueprint(sceneBlueprint).Named("scene")

	building := New(0x1001, SpatialEntity).
		Blueprint(sceneBlueprint).
		Factory(buildingBlueprint).
		Named("building").
		Transform(yaw(90))

	wall := New(0x2001, GeomEntity, SpatialEntity).
		Blueprint(buildingBlueprint).
		Named("wall").
		Geometry(10).
		CollisionResource(11).
		Transform(yaw(45)).
		Define("m_bVisible", typeinfo.Bool).
		Set("m_bVisible", []byte{1})

	door := New(0x2002, GeomEntity, SpatialEntity).
		Blueprint(buildingBlueprint).
		Named("door").
		Geometry(12).
		CollisionResource(13).
		Define("m_fOpenAngle", typeinfo.Float32).
		Define("m_eidLinkedWall", EntityRef)

	water := New(0x2003, GeomEntity, PureWaterAspect, SpatialEntity).
		Blueprint(buildingBlueprint).
		Named("pool").
		Geometry(14).
		CollisionResource(15)

	proxy := New(0x3001, PrimitiveProxyEntity, SpatialEntity).
		Blueprint(sceneBlueprint).
		Named("crate proxy").
		CollisionResource(16)

	seed := New(0x4001, SeedPoint, SpatialEntity).Blueprint(sceneBlueprint).Named("seed")
	box := New(0x4002, BoxEntity, SpatialEntity).Blueprint(sceneBlueprint).Named("nav box").Transform(yaw(30))

	building.Add(wall, door, water)
	root.Add(building, proxy, seed, box)

	w := NewWorld(root)
	w.AddResource(10, resource.Info{ID: 0x00A1B2C3D4E5F601, Type: resource.TypePrimitive}, 20)
	w.AddResource(11, resource.Info{ID: 0x00A1B2C3D4E5F611, Type: resource.TypeCollision})
	w.AddResource(12, resource.Info{ID: 0x00A1B2C3D4E5F602, Type: resource.TypePrimitive})
	w.AddResource(13, resource.Info{ID: 0x00A1B2C3D4E5F613, Type: resource.TypeCollision})
	w.AddResource(14, resource.Info{ID: 0x00A1B2C3D4E5F604, Type: resource.TypePrimitive})
	w.AddResource(15, resource.Info{ID: 0x00A1B2C3D4E5F615, Type: resource.TypeCollision})
	w.AddResource(16, resource.Info{ID: 0x00A1B2C3D4E5F616, Type: resource.TypeCollision})
	w.AddResource(20, resource.Info{ID: 0x00A1B2C3D4E5F620, Type: resource.TypeCollision})
	return w
}
