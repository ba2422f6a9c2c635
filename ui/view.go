package ui

import (
	"image"
	"image/color"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"

	"github.com/salis-alife/salis/salis"
)

// view is the camera over the arena: an origin cell, a zoom level (cells per
// pixel) and the reusable buffers for one frame.
type view struct {
	sim    *salis.Salis
	width  int
	height int
	origin uint32
	zoom   uint32
	paused bool
	pixels []byte
	img    *image.RGBA
	prev   map[glfw.Key]bool
}

func newView(sim *salis.Salis, width, height int) *view {
	return &view{
		sim:    sim,
		width:  width,
		height: height,
		zoom:   1,
		pixels: make([]byte, width*height),
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		prev:   map[glfw.Key]bool{},
	}
}

// pixelColor maps one rendered arena pixel to a screen color. The opcode
// mean sets the base intensity, the allocated flag tints it green, and the
// overlay flags paint block starts yellow and instruction pointers red.
func pixelColor(pixel byte) color.RGBA {
	intensity := 60 + (pixel&0x1f)*6
	c := color.RGBA{R: intensity / 3, G: intensity / 3, B: intensity / 2, A: 0xff}
	if pixel&salis.AllocFlag != 0 {
		c = color.RGBA{R: 0, G: intensity, B: intensity / 4, A: 0xff}
	}
	if pixel&salis.BlockFlag != 0 {
		c = color.RGBA{R: 0xe0, G: 0xc0, B: 0x20, A: 0xff}
	}
	if pixel&salis.IPFlag != 0 {
		c = color.RGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff}
	}
	return c
}

// frame renders the arena into the view's RGBA image, one row after another
// left to right, wrapping the 1D image into the window rectangle.
func (v *view) frame() *image.RGBA {
	buffSize := uint32(len(v.pixels))
	v.sim.RenderImage(v.origin, v.zoom, buffSize, v.pixels)
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			v.img.SetRGBA(x, y, pixelColor(v.pixels[y*v.width+x]))
		}
	}
	return v.img
}

// pressed reports a key transition from up to down since the last poll.
func (v *view) pressed(window *glfw.Window, key glfw.Key) bool {
	down := window.GetKey(key) == glfw.Press
	was := v.prev[key]
	v.prev[key] = down
	return down && !was
}

// handleKeys polls the viewer controls: space pauses, A/D pan, W/S zoom and
// F writes a snapshot.
func (v *view) handleKeys(window *glfw.Window, snapshotPath string) {
	size := v.sim.Memory().Size()
	span := v.zoom * uint32(len(v.pixels))
	if v.pressed(window, glfw.KeySpace) {
		v.paused = !v.paused
	}
	if v.pressed(window, glfw.KeyW) && v.zoom < size {
		v.zoom *= 2
	}
	if v.pressed(window, glfw.KeyS) && v.zoom > 1 {
		v.zoom /= 2
	}
	if v.pressed(window, glfw.KeyD) {
		v.origin += span / 4
		if v.origin >= size {
			v.origin = size - 1
		}
	}
	if v.pressed(window, glfw.KeyA) {
		step := span / 4
		if v.origin >= step {
			v.origin -= step
		} else {
			v.origin = 0
		}
	}
	if v.pressed(window, glfw.KeyF) && snapshotPath != "" {
		if err := v.sim.SaveFile(snapshotPath); err != nil {
			glog.Errorf("snapshot failed: %v", err)
		} else {
			glog.Infof("snapshot written to %s", snapshotPath)
		}
	}
}
