package timeline

import "github.com/horristic/plyseq/internal/ply"

// WorldScale converts capture-space metres into scene units. Capture space
// is Y-up; the scene is Z-up, so positions map
// (x, y, z) → (x·20, −z·20, y·20). Velocities get the same axis rotation
// without the scale so they stay in metres/second.
const WorldScale = 20

// TransformPosition maps one capture-space position into scene space.
func TransformPosition(x, y, z float32) (float32, float32, float32) {
	return x * WorldScale, -z * WorldScale, y * WorldScale
}

// TransformVelocity rotates one capture-space velocity into scene space.
func TransformVelocity(vx, vy, vz float32) (float32, float32, float32) {
	return vx, -vz, vy
}

// RenderFrame is the transformed payload handed to a Consumer for one frame.
// Slices are parallel, one entry per vertex record. The consumer owns the
// frame once delivered; the controller never touches it again.
type RenderFrame struct {
	Frame int

	// Scene-space positions
	X, Y, Z []float32
	// Colors normalised from 0-255 bytes to [0, 1]
	R, G, B []float32
	// Scene-space velocities in metres/second
	VX, VY, VZ []float32

	// TargetPosition is the scene-space torso anchor when the source header
	// carried a torso_7_global_position comment, nil otherwise.
	TargetPosition *[3]float64

	// Meta carries the decoded header metadata through to the consumer.
	Meta ply.Metadata
}

// BuildRenderFrame transforms a decoded cloud into a scene-space frame.
func BuildRenderFrame(frame int, cloud *ply.Cloud) *RenderFrame {
	n := len(cloud.Records)
	rf := &RenderFrame{
		Frame: frame,
		X:     make([]float32, n),
		Y:     make([]float32, n),
		Z:     make([]float32, n),
		R:     make([]float32, n),
		G:     make([]float32, n),
		B:     make([]float32, n),
		VX:    make([]float32, n),
		VY:    make([]float32, n),
		VZ:    make([]float32, n),
		Meta:  cloud.Header.Meta,
	}

	for i, rec := range cloud.Records {
		rf.X[i], rf.Y[i], rf.Z[i] = TransformPosition(rec.X, rec.Y, rec.Z)
		rf.R[i] = float32(rec.R) / 255
		rf.G[i] = float32(rec.G) / 255
		rf.B[i] = float32(rec.B) / 255
		rf.VX[i], rf.VY[i], rf.VZ[i] = TransformVelocity(rec.VX, rec.VY, rec.VZ)
	}

	if tp := cloud.Header.Meta.TorsoPosition; tp != nil {
		scene := [3]float64{tp[0] * WorldScale, -tp[2] * WorldScale, tp[1] * WorldScale}
		rf.TargetPosition = &scene
	}
	return rf
}
