package obstacle

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestDisplayScale(t *testing.T) {
	ds, err := NewDisplayScale(128, 96, 480, 360)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ds.X, test.ShouldEqual, 3.75)
	test.That(t, ds.Y, test.ShouldEqual, 3.75)
	test.That(t, ds.Display(), test.ShouldResemble, image.Rect(0, 0, 480, 360))

	_, err = NewDisplayScale(0, 96, 480, 360)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewDisplayScale(128, 96, 480, -1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRemap(t *testing.T) {
	ds, err := NewDisplayScale(128, 96, 480, 360)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, ds.Remap(0, 0), test.ShouldResemble, image.Point{0, 0})
	test.That(t, ds.Remap(94, 126), test.ShouldResemble, image.Point{472, 352})
	test.That(t, ds.Remap(95, 127), test.ShouldResemble, image.Point{476, 356})

	t.Run("columns are horizontal", func(t *testing.T) {
		test.That(t, ds.Remap(10, 100), test.ShouldResemble, image.Point{X: 375, Y: 37})
		test.That(t, ds.Remap(100, 10), test.ShouldResemble, image.Point{X: 37, Y: 375})
	})

	t.Run("always on screen", func(t *testing.T) {
		for _, dims := range [][4]int{
			{128, 96, 480, 360},
			{128, 96, 640, 480},
			{64, 48, 100, 75},
			{7, 5, 13, 11},
		} {
			ds, err := NewDisplayScale(dims[0], dims[1], dims[2], dims[3])
			test.That(t, err, test.ShouldBeNil)
			for row := 0; row < dims[1]; row++ {
				for col := 0; col < dims[0]; col++ {
					test.That(t, ds.Remap(row, col).In(ds.Display()), test.ShouldBeTrue)
				}
			}
		}
	})
}
