package tessellate_test

import (
	"fmt"

	"mmas/internal/lattice"
	"mmas/internal/tessellate"
)

func ExampleFill() {
	l, _ := lattice.New(4, 4)
	l.Stamp(lattice.Point{X: 0, Y: 0})
	l.Stamp(lattice.Point{X: 3, Y: 3})
	if err := tessellate.Fill(l, tessellate.KDTree); err != nil {
		fmt.Println(err)
		return
	}
	for y := 0; y < l.Rows(); y++ {
		row := make([]int32, l.Cols())
		for x := range row {
			row[x] = l.At(x, y)
		}
		fmt.Println(row)
	}
	// Output:
	// [1 1 1 1]
	// [1 1 1 2]
	// [1 1 2 2]
	// [1 2 2 2]
}
