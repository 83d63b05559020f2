// Package overlay draws confirmation feedback and hand skeletons onto
// camera frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/detector"
)

// Text colours.
var (
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	Blue  = color.RGBA{R: 0, G: 128, B: 255, A: 0}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// connections are the landmark pairs drawn as bones.
var connections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.PinkyMCP, detector.PinkyPIP},
	{detector.PinkyPIP, detector.PinkyDIP}, {detector.PinkyDIP, detector.PinkyTip},
	{detector.Wrist, detector.PinkyMCP},
}

// Text returns the feedback line for a frame status and whether anything
// should be drawn.
func Text(st confirm.Status) (string, bool) {
	switch st.Kind {
	case confirm.StatusDetected:
		return "Sign: " + st.Symbol.String(), true
	case confirm.StatusCooldown:
		return fmt.Sprintf("Wait: %.1fs", st.Remaining.Seconds()), true
	case confirm.StatusDetecting:
		return "Hold: " + st.Symbol.String(), true
	}
	return "", false
}

// Color returns the colour used for Text(st).
func Color(st confirm.Status) color.RGBA {
	switch st.Kind {
	case confirm.StatusDetected:
		return Green
	case confirm.StatusCooldown:
		return Red
	case confirm.StatusDetecting:
		return Blue
	}
	return White
}

// Annotator draws onto frames in place.
type Annotator struct {
	Origin    image.Point
	Scale     float64
	Thickness int
	// Skeleton enables drawing the detected hand.
	Skeleton bool
}

// NewAnnotator returns an Annotator with the standard placement.
func NewAnnotator() *Annotator {
	return &Annotator{
		Origin:    image.Pt(50, 50),
		Scale:     1,
		Thickness: 2,
		Skeleton:  true,
	}
}

// Render draws the hand skeletons and the status line.
func (a *Annotator) Render(frame *gocv.Mat, st confirm.Status, hands []detector.HandLandmarks) {
	if frame == nil || frame.Empty() {
		return
	}
	if a.Skeleton {
		for i := range hands {
			DrawHand(frame, &hands[i])
		}
	}
	if text, ok := Text(st); ok {
		gocv.PutText(frame, text, a.Origin, gocv.FontHersheySimplex, a.Scale, Color(st), a.Thickness)
	}
}

// Mirror flips the frame horizontally in place.
func Mirror(frame *gocv.Mat) {
	gocv.Flip(*frame, frame, 1)
}

// DrawHand draws the landmark skeleton. Landmarks are in normalized
// image coordinates.
func DrawHand(frame *gocv.Mat, hand *detector.HandLandmarks) {
	w, h := frame.Cols(), frame.Rows()
	pts := make([]image.Point, detector.NumLandmarks)
	for i, p := range hand.Points {
		pts[i] = ToPixel(p, w, h)
	}
	for _, c := range connections {
		gocv.Line(frame, pts[c[0]], pts[c[1]], White, 2)
	}
	for _, p := range pts {
		gocv.Circle(frame, p, 3, Red, -1)
	}
}

// ToPixel maps a normalized landmark to a pixel position.
func ToPixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// EncodeJPEG encodes a frame for streaming.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
