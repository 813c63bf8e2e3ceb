package framebuffer

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/pixel"
)

func screenInfo(bpp uint32, red, green, blue, alpha bitField) *varScreenInfo {
	return &varScreenInfo{
		Xres:         4,
		Yres:         2,
		BitsPerPixel: bpp,
		Red:          red,
		Green:        green,
		Blue:         blue,
		Alpha:        alpha,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		info *varScreenInfo
		want format
		err  error
	}{
		{"rgb565", screenInfo(16, bitField{11, 5, 0}, bitField{5, 6, 0}, bitField{0, 5, 0}, bitField{}), formatRGB565, nil},
		{"bgr565", screenInfo(16, bitField{0, 5, 0}, bitField{5, 6, 0}, bitField{11, 5, 0}, bitField{}), formatBGR565, nil},
		{"xrgb8888", screenInfo(32, bitField{16, 8, 0}, bitField{8, 8, 0}, bitField{0, 8, 0}, bitField{}), formatXRGB8888, nil},
		{"argb8888", screenInfo(32, bitField{16, 8, 0}, bitField{8, 8, 0}, bitField{0, 8, 0}, bitField{24, 8, 0}), formatXRGB8888, nil},
		{"xbgr8888", screenInfo(32, bitField{0, 8, 0}, bitField{8, 8, 0}, bitField{16, 8, 0}, bitField{}), formatXBGR8888, nil},
		{"rgb555", screenInfo(15, bitField{10, 5, 0}, bitField{5, 5, 0}, bitField{0, 5, 0}, bitField{}), formatUnknown, ErrFormat},
		{"packed24", screenInfo(24, bitField{16, 8, 0}, bitField{8, 8, 0}, bitField{0, 8, 0}, bitField{}), formatUnknown, ErrFormat},
		{"packed24 alpha", screenInfo(24, bitField{16, 8, 0}, bitField{8, 8, 0}, bitField{0, 8, 0}, bitField{24, 8, 0}), formatUnknown, ErrFormat},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := parseFormat(test.info)
			if !errors.Is(err, test.err) {
				t.Fatalf("expected error %v, got %v", test.err, err)
			}
			if f != test.want {
				t.Errorf("expected format %s, got %s", test.want, f)
			}
		})
	}

	if _, err := parseFormat(nil); err == nil {
		t.Error("expected missing screen info to be rejected")
	}
}

func TestScreenTiming(t *testing.T) {
	info := &varScreenInfo{
		Xres:        800,
		Yres:        480,
		Pixclock:    36458, // picoseconds, about 27.429 MHz
		HsyncLen:    1,
		LeftMargin:  1,
		RightMargin: 1,
		VsyncLen:    1,
		UpperMargin: 1,
		LowerMargin: 1,
	}
	timing, frame := info.timing()
	if diff := cmp.Diff(panel.DefaultTiming, timing); diff != "" {
		t.Errorf("timing mismatch (-want +got):\n%s", diff)
	}
	if d := frame - 14140*time.Microsecond; d < -10*time.Microsecond || d > 10*time.Microsecond {
		t.Errorf("expected a frame period of about 14.14ms, got %s", frame)
	}

	// Devices that do not report a video mode.
	info = &varScreenInfo{Xres: 320, Yres: 240}
	timing, frame = info.timing()
	if timing.Width != 320 || timing.Height != 240 || timing.Validate() != nil {
		t.Errorf("expected a valid 320x240 timing, got %s", timing)
	}
	if frame != defaultFramePeriod {
		t.Errorf("expected the default frame period %s, got %s", defaultFramePeriod, frame)
	}
}

func TestEncode(t *testing.T) {
	row := []uint32{0xff112233, 0x80ff0000}
	tests := []struct {
		format format
		want   []uint32
	}{
		{formatXRGB8888, []uint32{0xff112233, 0x80ff0000}},
		{formatXBGR8888, []uint32{0xff332211, 0x800000ff}},
		{formatRGB565, []uint32{0x1106, 0xf800}},
		{formatBGR565, []uint32{0x3102, 0x001f}},
	}
	for _, test := range tests {
		t.Run(test.format.String(), func(t *testing.T) {
			bpp := test.format.bytesPerPixel()
			dst := make([]byte, len(row)*bpp)
			test.format.encode(dst, row)

			got := make([]uint32, len(row))
			for i := range got {
				if bpp == 4 {
					got[i] = nativeEndian.Uint32(dst[i*4:])
				} else {
					got[i] = uint32(nativeEndian.Uint16(dst[i*2:]))
				}
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("encode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeFrame(t *testing.T) {
	fb := pixel.NewARGB8888Image(2, 2)
	fb.SetWord(0, 0, 0x01)
	fb.SetWord(1, 0, 0x02)
	fb.SetWord(0, 1, 0x03)
	fb.SetWord(1, 1, 0x04)

	// Three pixel wide lines, visible area starting at (1, 1).
	const stride = 3 * 4
	mem := make([]byte, stride*3)
	formatXRGB8888.encodeFrame(mem, stride, image.Pt(1, 1), fb)

	got := make([]uint32, 9)
	for i := range got {
		got[i] = nativeEndian.Uint32(mem[i*4:])
	}
	want := []uint32{
		0, 0, 0,
		0, 1, 2,
		0, 3, 4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}
}
