package pixel

import (
	"image/color"
	"testing"
)

func TestARGB8888(t *testing.T) {
	for _, test := range []struct {
		c    color.Color
		want uint32
	}{
		{color.Black, 0xff000000},
		{color.White, 0xffffffff},
		{color.Transparent, 0x00000000},
		{color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, 0xff123456},
		{color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0x80}, 0x80ff8000},
	} {
		t.Run("", func(t *testing.T) {
			v := ARGB8888Model.Convert(test.c).(ARGB8888)
			if v.V != test.want {
				t.Errorf("expected %#08x, got %#08x", test.want, v.V)
			}
			if n := Unpack(v.V); Pack(n) != test.want {
				t.Errorf("expected unpacked %v to pack to %#08x, got %#08x", n, test.want, Pack(n))
			}
		})
	}
}

func TestRGB565(t *testing.T) {
	for _, test := range []struct {
		c    color.Color
		want uint16
	}{
		{color.Black, 0x0000},
		{color.White, 0xffff},
		{color.RGBA{R: 0xff, A: 0xff}, 0xf800},
		{color.RGBA{G: 0xff, A: 0xff}, 0x07e0},
		{color.RGBA{B: 0xff, A: 0xff}, 0x001f},
		{ARGB8888{0xff00ff00}, 0x07e0},
	} {
		t.Run("", func(t *testing.T) {
			v := RGB565Model.Convert(test.c).(RGB565)
			if v.V != test.want {
				t.Errorf("expected %#04x, got %#04x", test.want, v.V)
			}
		})
	}

	r, g, b, a := RGB565{0xffff}.RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("expected white, got %#04x %#04x %#04x %#04x", r, g, b, a)
	}
}
