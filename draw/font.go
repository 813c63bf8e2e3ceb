package draw

import (
	"fmt"
	"log"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FixedFace is the built-in bitmap font, used when no TrueType font is available.
var FixedFace font.Face = basicfont.Face7x13

// LoadFont parses a TrueType font and returns a face of the given point size.
func LoadFont(ttf []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("draw: parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

var (
	faceMu    sync.Mutex
	faceCache = map[faceKey]font.Face{}
)

type faceKey struct {
	bold bool
	size float64
}

// DefaultFace returns the Go Regular face at size points.
func DefaultFace(size float64) font.Face {
	return builtinFace(faceKey{size: size})
}

// BoldFace returns the Go Bold face at size points.
func BoldFace(size float64) font.Face {
	return builtinFace(faceKey{bold: true, size: size})
}

func builtinFace(key faceKey) font.Face {
	faceMu.Lock()
	defer faceMu.Unlock()

	if face, ok := faceCache[key]; ok {
		return face
	}

	ttf := goregular.TTF
	if key.bold {
		ttf = gobold.TTF
	}
	face, err := LoadFont(ttf, key.size)
	if err != nil {
		log.Printf("draw: falling back to fixed font: %v", err)
		face = FixedFace
	}
	faceCache[key] = face
	return face
}
