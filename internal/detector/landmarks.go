// Package detector finds hands in camera frames and turns them into the
// landmark vectors the sign classifiers consume.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21

	// FeatureLen is the length of the vector returned by Features.
	FeatureLen = NumLandmarks * 3
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Features flattens the landmarks into x0,y0,z0,...,x20,y20,z20 in image
// coordinates. This is the input layout of the trained letter models,
// which expect raw rather than normalized points.
func (h *HandLandmarks) Features() []float32 {
	out := make([]float32, 0, FeatureLen)
	for _, p := range h.Points {
		out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return out
}

// FromFeatures is the inverse of Features. It returns false when v has
// the wrong length.
func FromFeatures(v []float32) (HandLandmarks, bool) {
	var h HandLandmarks
	if len(v) != FeatureLen {
		return h, false
	}
	for i := range h.Points {
		h.Points[i] = Point3D{
			X: float64(v[i*3]),
			Y: float64(v[i*3+1]),
			Z: float64(v[i*3+2]),
		}
	}
	return h, true
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Scale returns p multiplied by k.
func (p Point3D) Scale(k float64) Point3D {
	return Point3D{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
}

// Norm is the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Normalize returns a copy with the wrist at the origin and the
// wrist to middle-MCP distance scaled to 1. A degenerate hand whose
// middle MCP sits on the wrist is only translated.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	out := &HandLandmarks{Handedness: h.Handedness, Score: h.Score}
	wrist := h.Points[Wrist]
	for i, p := range h.Points {
		out.Points[i] = p.Sub(wrist)
	}

	size := out.Points[MiddleMCP].Norm()
	if size < 1e-10 {
		return out
	}
	for i, p := range out.Points {
		out.Points[i] = p.Scale(1 / size)
	}
	return out
}
