package raster

// Decompose splits an RGB or RGBA raster into its red, green and blue
// planes. It is the exact inverse of Compose.
func Decompose(c *Raster) (r, g, b *Raster, err error) {
	if err = requireChannels("decompose", c, 3, 4); err != nil {
		return nil, nil, nil, err
	}
	planes := [3]*Raster{}
	for i := range planes {
		planes[i] = New(c.Width, c.Height, 1)
	}
	for i, o := 0, 0; i < len(planes[0].Pix); i, o = i+1, o+c.Channels {
		planes[0].Pix[i] = c.Pix[o]
		planes[1].Pix[i] = c.Pix[o+1]
		planes[2].Pix[i] = c.Pix[o+2]
	}
	return planes[0], planes[1], planes[2], nil
}

// ExtractChannel returns one plane of an RGB or RGBA raster.
func ExtractChannel(c *Raster, slot Channel) (*Raster, error) {
	if !slot.Valid() {
		return nil, &UnsupportedFormatError{Op: "extract", Reason: "invalid slot " + slot.String()}
	}
	if err := requireChannels("extract", c, 3, 4); err != nil {
		return nil, err
	}
	out := New(c.Width, c.Height, 1)
	idx := slot.Index()
	for i, o := 0, idx; i < len(out.Pix); i, o = i+1, o+c.Channels {
		out.Pix[i] = c.Pix[o]
	}
	return out, nil
}

// IsolateChannel keeps one colour channel of an RGB or RGBA raster and
// zeroes the other two, producing an RGB raster such as (v, 0, 0) for Red.
// Detectors that only accept colour input are fed with this form.
func IsolateChannel(c *Raster, slot Channel) (*Raster, error) {
	if !slot.Valid() {
		return nil, &UnsupportedFormatError{Op: "isolate", Reason: "invalid slot " + slot.String()}
	}
	if err := requireChannels("isolate", c, 3, 4); err != nil {
		return nil, err
	}
	out := New(c.Width, c.Height, 3)
	idx := slot.Index()
	for i, o := 0, 0; i < len(out.Pix); i, o = i+3, o+c.Channels {
		out.Pix[i+idx] = c.Pix[o+idx]
	}
	return out, nil
}
