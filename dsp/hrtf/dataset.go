package hrtf

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/geom"
)

// ErrMalformedHRTF reports an HRIR set that cannot be rendered.
var ErrMalformedHRTF = errors.New("hrtf: malformed hrtf data")

// HRIR is the impulse response pair measured for one direction.
type HRIR struct {
	Left  []float64
	Right []float64
}

// Provider supplies a fixed set of measured directions and their HRIRs.
type Provider interface {
	SampleRate() float64
	// Length is the longest HRIR in samples.
	Length() int
	NumDirections() int
	Direction(i int) geom.Vector3
	HRIR(i int) HRIR
}

// Dataset is an in-memory Provider.
type Dataset struct {
	sampleRate float64
	length     int
	directions []geom.Vector3
	hrirs      []HRIR
}

// NewDataset validates and copies an HRIR set. Directions are normalized;
// each HRIR needs non-empty, finite left and right responses.
func NewDataset(sampleRate float64, directions []geom.Vector3, hrirs []HRIR) (*Dataset, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrMalformedHRTF, sampleRate)
	}

	if len(directions) == 0 {
		return nil, fmt.Errorf("%w: no directions", ErrMalformedHRTF)
	}

	if len(directions) != len(hrirs) {
		return nil, fmt.Errorf("%w: %d directions for %d hrirs", ErrMalformedHRTF, len(directions), len(hrirs))
	}

	d := &Dataset{
		sampleRate: sampleRate,
		directions: make([]geom.Vector3, len(directions)),
		hrirs:      make([]HRIR, len(hrirs)),
	}

	for i, dir := range directions {
		if geom.IsZero(dir) || !geom.IsFinite(dir) {
			return nil, fmt.Errorf("%w: direction %d is %v", ErrMalformedHRTF, i, dir)
		}

		h := hrirs[i]
		if len(h.Left) == 0 || len(h.Right) == 0 {
			return nil, fmt.Errorf("%w: direction %d has an empty response", ErrMalformedHRTF, i)
		}

		if !finite(h.Left) || !finite(h.Right) {
			return nil, fmt.Errorf("%w: direction %d has non-finite samples", ErrMalformedHRTF, i)
		}

		d.directions[i] = geom.Normalize(dir)
		d.hrirs[i] = HRIR{
			Left:  append([]float64(nil), h.Left...),
			Right: append([]float64(nil), h.Right...),
		}
		d.length = max(d.length, len(h.Left), len(h.Right))
	}

	return d, nil
}

func (d *Dataset) SampleRate() float64          { return d.sampleRate }
func (d *Dataset) Length() int                  { return d.length }
func (d *Dataset) NumDirections() int           { return len(d.directions) }
func (d *Dataset) Direction(i int) geom.Vector3 { return d.directions[i] }
func (d *Dataset) HRIR(i int) HRIR              { return d.hrirs[i] }

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// DirectionFromAngles converts azimuth (clockwise from ahead, toward the
// right) and elevation (up from the horizontal plane), both in degrees, to a
// listener-local unit vector.
func DirectionFromAngles(azimuthDeg, elevationDeg float64) geom.Vector3 {
	az := azimuthDeg * math.Pi / 180
	el := elevationDeg * math.Pi / 180

	return geom.Vec(math.Sin(az)*math.Cos(el), math.Sin(el), -math.Cos(az)*math.Cos(el))
}
