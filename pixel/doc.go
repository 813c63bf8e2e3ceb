// Package pixel implements the color models and images used by the panel framebuffer.
//
// The framebuffer is a flat slice of packed 32-bit ARGB8888 words, compatible
// with Go's native [color.Color] and [image.Image] / [draw.Image] interfaces.
// Narrower formats are only used on the wire to the panel.
package pixel
