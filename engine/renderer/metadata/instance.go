package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/math"
)

/** @brief A positioned copy of the scene geometry. */
type Instance struct {
	Position math.Vec3
	Rotation math.Quaternion
}

/**
 * @brief The GPU form of an Instance: the model matrix as four columns,
 * bound at @location(5) to @location(8).
 */
type InstanceRaw struct {
	Model [4][4]float32
}

const InstanceRawSize = uint64(unsafe.Sizeof(InstanceRaw{}))

// ToRaw returns translation(Position) * rotation(Rotation).
func (i Instance) ToRaw() InstanceRaw {
	m := math.NewMat4Translation(i.Position).Mul(i.Rotation.ToMat4())
	return InstanceRaw{Model: m.Cols()}
}

// InstanceGrid describes the fixed grid of instances generated at startup.
type InstanceGrid struct {
	Rows    uint32
	Cols    uint32
	Spacing float32
	// Subtracted from each grid position so the grid is centred.
	Displacement math.Vec3
}

// GenerateInstances lays out rows x cols instances on the XZ plane. Each
// instance is rotated 45 degrees around its own normalized position; the
// instance sitting exactly on the origin gets a zero rotation around Z.
func GenerateInstances(grid InstanceGrid) []Instance {
	instances := make([]Instance, 0, grid.Rows*grid.Cols)
	for z := uint32(0); z < grid.Rows; z++ {
		for x := uint32(0); x < grid.Cols; x++ {
			position := math.NewVec3(float32(x)*grid.Spacing, 0, float32(z)*grid.Spacing).Sub(grid.Displacement)

			var rotation math.Quaternion
			if position.IsZero() {
				rotation = math.NewQuatFromAxisAngle(math.NewVec3Back(), 0, false)
			} else {
				rotation = math.NewQuatFromAxisAngle(position, math.DegToRad(45), true)
			}
			instances = append(instances, Instance{Position: position, Rotation: rotation})
		}
	}
	return instances
}

func InstancesToRaw(instances []Instance) []InstanceRaw {
	raw := make([]InstanceRaw, len(instances))
	for i, inst := range instances {
		raw[i] = inst.ToRaw()
	}
	return raw
}
