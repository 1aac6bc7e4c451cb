package model

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// ColorRamp is a sequence of equally spaced color stops interpolated
// linearly in between. The stop values reproduce the ColorBrewer
// palettes the tool has always rendered with.
type ColorRamp []RGB

var (
	// RampGreenYellowRed styles accumulated cost surfaces: far is red.
	RampGreenYellowRed = ColorRamp{
		{26, 150, 65}, {166, 217, 106}, {255, 255, 192}, {253, 174, 97}, {215, 25, 28},
	}

	// RampRedYellowGreen styles probability-like layers: high is good.
	RampRedYellowGreen = ColorRamp{
		{215, 25, 28}, {253, 174, 97}, {255, 255, 192}, {166, 217, 106}, {26, 150, 65},
	}

	// RampBlueGreenYellowRed styles the functionality surface.
	RampBlueGreenYellowRed = ColorRamp{
		{43, 131, 186}, {171, 221, 164}, {255, 255, 191}, {253, 174, 97}, {215, 25, 28},
	}

	// RampYellowBlue styles the source and quality class layers.
	RampYellowBlue = ColorRamp{
		{255, 255, 204}, {161, 218, 180}, {65, 182, 196}, {44, 127, 184}, {37, 52, 148},
	}

	// RampYellowRed styles friction surfaces.
	RampYellowRed = ColorRamp{
		{255, 255, 191}, {253, 174, 97}, {215, 25, 28},
	}
)

// At returns the interpolated color at frac in [0, 1]. Out-of-range
// fractions clamp to the first or last stop.
func (cr ColorRamp) At(frac float64) RGB {
	if len(cr) == 0 {
		return RGB{}
	}
	if len(cr) == 1 || frac <= 0 {
		return cr[0]
	}
	if frac >= 1 {
		return cr[len(cr)-1]
	}

	pos := frac * float64(len(cr)-1)
	i := int(pos)
	t := pos - float64(i)
	a, b := cr[i], cr[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return RGB{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B)}
}
