package hrtf_test

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/dsp/hrtf"
)

func ExampleNeighbors() {
	// Poles, then the horizontal ring at 0, 90, 180 and 270 degrees.
	head, err := hrtf.NewSphericalHead(48000, hrtf.WithGridStep(90))
	if err != nil {
		panic(err)
	}

	buf := make([]hrtf.Neighbor, 0, hrtf.MaxNeighbors)
	for _, n := range hrtf.Neighbors(head, hrtf.DirectionFromAngles(30, 0), 2, buf) {
		fmt.Printf("direction %d weight %.3f\n", n.Index, n.Weight)
	}
	// Output:
	// direction 2 weight 0.667
	// direction 3 weight 0.333
}
