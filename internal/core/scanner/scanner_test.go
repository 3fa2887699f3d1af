package scanner

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenebridge/internal/core/observability/metrics"
	"github.com/zeusync/scenebridge/internal/core/property"
	"github.com/zeusync/scenebridge/internal/core/resource"
	"github.com/zeusync/scenebridge/internal/core/scene"
	"github.com/zeusync/scenebridge/internal/core/transform"
	"github.com/zeusync/scenebridge/internal/core/typeinfo"
	"github.com/zeusync/scenebridge/internal/memsim"
)

type emitted struct {
	sizes  []int
	finals []bool
	all    []Record
}

func (e *emitted) emit(batch []Record, final bool) {
	e.sizes = append(e.sizes, len(batch))
	e.finals = append(e.finals, final)
	e.all = append(e.all, batch...)
}

func newScanner(t *testing.T, world *memsim.World, opts ...Option) *Scanner {
	t.Helper()
	reg := typeinfo.NewDefaultRegistry()
	transform.RegisterConverters(reg)
	world.RegisterPropertyNames(reg)
	adapter := typeinfo.NewAdapter(reg)

	cache := scene.NewCache(world)
	_, err := cache.Rebuild(context.Background())
	require.NoError(t, err)

	bridge := property.NewBridge(adapter, nil)
	return New(cache, bridge, transform.NewCompositor(adapter, bridge, nil), world, opts...)
}

func yaw(deg float64) transform.Matrix43 {
	return transform.FromRotation(transform.AxisAngle(transform.Vec3{Z: 1}, deg*math.Pi/180), 1, transform.Vec3{})
}

func proxies(n int) *memsim.Entity {
	root := memsim.New(1, memsim.SpatialEntity)
	for i := range n {
		root.Add(memsim.New(scene.EntityID(100+i), memsim.PrimitiveProxyEntity).CollisionResource(1))
	}
	return root
}

func TestCollisionBatching(t *testing.T) {
	world := memsim.NewWorld(proxies(25))
	world.AddResource(1, resource.Info{ID: 0xA10C, Type: resource.TypeCollision})
	s := newScanner(t, world)

	var got emitted
	total := s.CollisionCorrelations(got.emit)

	assert.Equal(t, 25, total)
	assert.Equal(t, []int{10, 10, 5}, got.sizes)
	assert.Equal(t, []bool{false, false, true}, got.finals)
	for _, rec := range got.all {
		assert.Equal(t, []string{"000000000000A10C"}, rec.Hashes)
	}
}

func TestCollisionBatchBoundary(t *testing.T) {
	world := memsim.NewWorld(proxies(20))
	world.AddResource(1, resource.Info{ID: 0xA10C, Type: resource.TypeCollision})
	s := newScanner(t, world)

	var got emitted
	s.CollisionCorrelations(got.emit)

	assert.Equal(t, []int{10, 10, 0}, got.sizes)
	assert.Equal(t, []bool{false, false, true}, got.finals)
}

func TestCollisionNothingQualifies(t *testing.T) {
	root := memsim.New(1, memsim.SpatialEntity).Add(memsim.New(2, memsim.SeedPoint))
	s := newScanner(t, memsim.NewWorld(root))

	var got emitted
	assert.Zero(t, s.CollisionCorrelations(got.emit))
	assert.Equal(t, []int{0}, got.sizes)
	assert.Equal(t, []bool{true}, got.finals)
}

func TestScanBeforeFirstRebuild(t *testing.T) {
	world := memsim.NewWorld(proxies(3))
	reg := typeinfo.NewDefaultRegistry()
	adapter := typeinfo.NewAdapter(reg)
	bridge := property.NewBridge(adapter, nil)
	s := New(scene.NewCache(world), bridge, transform.NewCompositor(adapter, bridge, nil), world)

	var got emitted
	s.CollisionCorrelations(got.emit)
	assert.Equal(t, []int{0}, got.sizes)
	assert.Equal(t, []bool{true}, got.finals)
}

func TestCollisionExcludesPureWater(t *testing.T) {
	root := memsim.New(1, memsim.SpatialEntity).Add(
		memsim.New(2, memsim.GeomEntity, memsim.PureWaterAspect).Geometry(10).CollisionResource(11),
		memsim.New(3, memsim.PrimitiveProxyEntity, memsim.PureWaterAspect).CollisionResource(11),
		memsim.New(4, memsim.GeomEntity).Geometry(10).CollisionResource(11),
	)
	world := memsim.NewWorld(root)
	world.AddResource(10, resource.Info{ID: 0x10, Type: resource.TypePrimitive})
	world.AddResource(11, resource.Info{ID: 0x11, Type: resource.TypeCollision})
	s := newScanner(t, world)

	var got emitted
	s.CollisionCorrelations(got.emit)

	require.Len(t, got.all, 1)
	assert.Equal(t, scene.EntityID(4), got.all[0].ID)
}

func TestCollisionHashes(t *testing.T) {
	root := memsim.New(1, memsim.SpatialEntity).Add(
		memsim.New(2, memsim.GeomEntity).Blueprint(0xB1).Geometry(10).CollisionResource(11),
		// references only
		memsim.New(3, memsim.GeomEntity).Geometry(10),
		// neither references nor a tag
		memsim.New(4, memsim.GeomEntity).Geometry(12),
		// geometry interface without the capability
		memsim.New(5, memsim.GeomEntity).Capability(memsim.GeomEntity, struct{}{}),
		// proxy without a tag
		memsim.New(6, memsim.PrimitiveProxyEntity),
		// tag pointing at no resource
		memsim.New(7, memsim.PrimitiveProxyEntity).CollisionResource(resource.None),
	)
	world := memsim.NewWorld(root)
	world.AddResource(10, resource.Info{ID: 0x10, Type: resource.TypePrimitive}, 20, 21, 22)
	world.AddResource(11, resource.Info{ID: 0x11, Type: resource.TypeCollision})
	world.AddResource(12, resource.Info{ID: 0x12, Type: resource.TypePrimitive})
	world.AddResource(20, resource.Info{ID: 0x20, Type: resource.TypeCollision})
	world.AddResource(21, resource.Info{ID: 0x21, Type: resource.TypePrimitive})
	world.AddResource(22, resource.Info{ID: 0x22, Type: resource.TypeCollision})
	s := newScanner(t, world)

	var got emitted
	s.CollisionCorrelations(got.emit)

	require.Len(t, got.all, 2)
	assert.Equal(t, scene.EntityID(2), got.all[0].ID)
	assert.Equal(t, scene.BlueprintHash(0xB1), got.all[0].Blueprint)
	assert.Equal(t, []string{"0000000000000020", "0000000000000022", "0000000000000011"}, got.all[0].Hashes)
	assert.Equal(t, scene.EntityID(3), got.all[1].ID)
	assert.Equal(t, []string{"0000000000000020", "0000000000000022"}, got.all[1].Hashes)
}

func TestCollisionRotationComposesOwners(t *testing.T) {
	wall := memsim.New(3, memsim.PrimitiveProxyEntity).CollisionResource(1).Transform(yaw(45))
	building := memsim.New(2, memsim.SpatialEntity).Transform(yaw(90)).Add(wall)
	root := memsim.New(1, memsim.SpatialEntity).Add(building)
	world := memsim.NewWorld(root)
	world.AddResource(1, resource.Info{ID: 1, Type: resource.TypeCollision})
	s := newScanner(t, world)

	var got emitted
	s.CollisionCorrelations(got.emit)

	require.Len(t, got.all, 1)
	want := transform.AxisAngle(transform.Vec3{Z: 1}, 135*math.Pi/180)
	assert.True(t, got.all[0].Rotation.ApproxEqual(want, 1e-5), "got %+v", got.all[0].Rotation)
}

func TestCollisionSkipsUnreadableTransform(t *testing.T) {
	broken := memsim.New(2, memsim.PrimitiveProxyEntity).
		CollisionResource(1).
		Define(transform.TransformPropertyName, typeinfo.Float32)
	root := memsim.New(1, memsim.SpatialEntity).Add(
		broken,
		memsim.New(3, memsim.PrimitiveProxyEntity).CollisionResource(1),
	)
	world := memsim.NewWorld(root)
	world.AddResource(1, resource.Info{ID: 1, Type: resource.TypeCollision})
	s := newScanner(t, world)

	var got emitted
	s.CollisionCorrelations(got.emit)

	require.Len(t, got.all, 1)
	assert.Equal(t, scene.EntityID(3), got.all[0].ID)
}

func TestCustomBatchSize(t *testing.T) {
	world := memsim.NewWorld(proxies(7))
	world.AddResource(1, resource.Info{ID: 1, Type: resource.TypeCollision})
	s := newScanner(t, world, WithBatchSize(3))

	var got emitted
	s.CollisionCorrelations(got.emit)
	assert.Equal(t, []int{3, 3, 1}, got.sizes)
}

func TestScanCarriesParents(t *testing.T) {
	s := newScanner(t, memsim.NewWorld(proxies(2)))

	parents := map[scene.EntityID]scene.EntityID{}
	s.Scan(func(parent, node *scene.Node) (Record, bool) {
		if parent != nil {
			parents[node.ID()] = parent.ID()
		}
		return Record{}, false
	}, func([]Record, bool) {})

	assert.Equal(t, map[scene.EntityID]scene.EntityID{100: 1, 101: 1}, parents)
}

func TestNavigationScans(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New("test", reg)
	require.NoError(t, err)
	s := newScanner(t, memsim.Demo(), WithMetrics(m))

	seeds := s.SeedPoints()
	require.Len(t, seeds, 1)
	assert.Equal(t, []string{SeedPointHash}, seeds[0].Hashes)
	assert.True(t, seeds[0].Rotation.ApproxEqual(transform.Identity(), 1e-6))

	boxes := s.BoxEntities()
	require.Len(t, boxes, 1)
	assert.Equal(t, []string{BoxEntityHash}, boxes[0].Hashes)
	assert.True(t, boxes[0].Rotation.ApproxEqual(transform.AxisAngle(transform.Vec3{Z: 1}, math.Pi/6), 1e-5))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanRecords.WithLabelValues("seed_points")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanRecords.WithLabelValues("box_entities")))
}

func TestDemoCollisionScan(t *testing.T) {
	s := newScanner(t, memsim.Demo())

	var got emitted
	s.CollisionCorrelations(got.emit)

	ids := make([]scene.EntityID, 0, len(got.all))
	for _, rec := range got.all {
		ids = append(ids, rec.ID)
	}
	// level order: the proxy sits one level above the building's geometry
	assert.Equal(t, []scene.EntityID{0x3001, 0x2001, 0x2002}, ids)
	assert.Equal(t, []string{"00A1B2C3D4E5F620", "00A1B2C3D4E5F611"}, got.all[1].Hashes)
	assert.True(t, got.all[1].Rotation.ApproxEqual(transform.AxisAngle(transform.Vec3{Z: 1}, 135*math.Pi/180), 1e-5))
}
