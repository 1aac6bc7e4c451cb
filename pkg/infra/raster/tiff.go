package raster

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// The subset of TIFF needed for single-band GDAL-compatible rasters:
// uncompressed strips plus the GeoTIFF pixel scale, tiepoint and
// GDAL_NODATA tags.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGDALNoData      = 42113

	typeByte   = 1
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeSByte  = 6
	typeSShort = 8
	typeSLong  = 9
	typeFloat  = 11
	typeDouble = 12

	compressionNone = 1

	sampleUint  = 1
	sampleInt   = 2
	sampleFloat = 3
)

var typeSizes = map[uint16]uint32{
	typeByte: 1, typeASCII: 1, typeShort: 2, typeLong: 4,
	typeSByte: 1, typeSShort: 2, typeSLong: 4,
	typeFloat: 4, typeDouble: 8,
	5: 8, 7: 1, 10: 8, // RATIONAL, UNDEFINED, SRATIONAL
}

// WriteTIFF writes r as a little-endian, uncompressed, single-band
// GeoTIFF with the grid geometry in ModelPixelScale/ModelTiepoint and
// the NoData marker in GDAL_NODATA.
func WriteTIFF(path string, r *model.Raster, depth model.SampleDepth) error {
	var bpp int
	var bits, sampleFormat uint16
	switch depth {
	case model.DepthByte:
		bpp, bits, sampleFormat = 1, 8, sampleUint
	case model.DepthFloat32:
		bpp, bits, sampleFormat = 4, 32, sampleFloat
	default:
		return goerr.New("unsupported sample depth", goerr.V("depth", depth))
	}

	data := make([]byte, len(r.Cells)*bpp)
	switch depth {
	case model.DepthByte:
		for i, v := range r.Cells {
			data[i] = clampByte(v)
		}
	case model.DepthFloat32:
		for i, v := range r.Cells {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(v)))
		}
	}

	nodata := formatCell(r.NoData)
	if math.IsNaN(r.NoData) {
		nodata = "nan"
	}
	nodata2 := append([]byte(nodata), 0)

	dataOffset := uint32(8)
	dataLen := uint32(len(data))
	if dataLen%2 == 1 {
		data = append(data, 0) // IFD must start on a word boundary
	}
	ifdOffset := dataOffset + uint32(len(data))

	const entryCount = 13
	extOffset := ifdOffset + 2 + entryCount*12 + 4
	scaleOffset := extOffset
	tieOffset := scaleOffset + 24
	nodataOffset := tieOffset + 48

	buf := &bytes.Buffer{}
	buf.WriteString("II")
	le16(buf, 42)
	le32(buf, ifdOffset)
	buf.Write(data)

	le16(buf, entryCount)
	writeEntry(buf, tagImageWidth, typeLong, 1, uint32(r.Width))
	writeEntry(buf, tagImageLength, typeLong, 1, uint32(r.Height))
	writeEntry(buf, tagBitsPerSample, typeShort, 1, uint32(bits))
	writeEntry(buf, tagCompression, typeShort, 1, compressionNone)
	writeEntry(buf, tagPhotometric, typeShort, 1, 1) // BlackIsZero
	writeEntry(buf, tagStripOffsets, typeLong, 1, dataOffset)
	writeEntry(buf, tagSamplesPerPixel, typeShort, 1, 1)
	writeEntry(buf, tagRowsPerStrip, typeLong, 1, uint32(r.Height))
	writeEntry(buf, tagStripByteCounts, typeLong, 1, dataLen)
	writeEntry(buf, tagSampleFormat, typeShort, 1, uint32(sampleFormat))
	writeEntry(buf, tagModelPixelScale, typeDouble, 3, scaleOffset)
	writeEntry(buf, tagModelTiepoint, typeDouble, 6, tieOffset)
	if len(nodata2) <= 4 {
		writeEntryInline(buf, tagGDALNoData, typeASCII, uint32(len(nodata2)), nodata2)
	} else {
		writeEntry(buf, tagGDALNoData, typeASCII, uint32(len(nodata2)), nodataOffset)
	}
	le32(buf, 0) // no next IFD

	le64f(buf, r.CellSize)
	le64f(buf, r.CellSize)
	le64f(buf, 0)

	yTop := r.YLL + float64(r.Height)*r.CellSize
	for _, v := range []float64{0, 0, 0, r.XLL, yTop, 0} {
		le64f(buf, v)
	}
	if len(nodata2) > 4 {
		buf.Write(nodata2)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write raster", goerr.V("path", path))
	}
	return nil
}

func clampByte(v float64) byte {
	n := math.Round(v)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return byte(n)
}

func le16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func le32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func le64f(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func writeEntry(buf *bytes.Buffer, tag, typ uint16, count, value uint32) {
	le16(buf, tag)
	le16(buf, typ)
	le32(buf, count)
	le32(buf, value)
}

func writeEntryInline(buf *bytes.Buffer, tag, typ uint16, count uint32, value []byte) {
	le16(buf, tag)
	le16(buf, typ)
	le32(buf, count)
	var field [4]byte
	copy(field[:], value)
	buf.Write(field[:])
}

type tiffTag struct {
	typ   uint16
	count uint32
	data  []byte
	bo    binary.ByteOrder
}

func (t *tiffTag) uint(i int) uint64 {
	switch t.typ {
	case typeByte:
		return uint64(t.data[i])
	case typeShort:
		return uint64(t.bo.Uint16(t.data[i*2:]))
	case typeLong:
		return uint64(t.bo.Uint32(t.data[i*4:]))
	}
	return 0
}

func (t *tiffTag) double(i int) float64 {
	switch t.typ {
	case typeFloat:
		return float64(math.Float32frombits(t.bo.Uint32(t.data[i*4:])))
	case typeDouble:
		return math.Float64frombits(t.bo.Uint64(t.data[i*8:]))
	}
	return float64(t.uint(i))
}

func (t *tiffTag) ascii() string {
	return strings.TrimRight(string(t.data), "\x00")
}

// ReadTIFF reads an uncompressed single-band TIFF in either byte
// order. Unsigned, signed and floating samples of 8 to 64 bits are
// accepted; grid geometry and the NoData marker come from the GeoTIFF
// and GDAL tags when present.
func ReadTIFF(path string) (*model.Raster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read raster", goerr.V("path", path))
	}

	r, err := parseTIFF(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse TIFF", goerr.V("path", path))
	}
	return r, nil
}

func parseTIFF(raw []byte) (*model.Raster, error) {
	if len(raw) < 8 {
		return nil, goerr.New("file too short for a TIFF header")
	}
	var bo binary.ByteOrder
	switch string(raw[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, goerr.New("not a TIFF file")
	}
	if bo.Uint16(raw[2:4]) != 42 {
		return nil, goerr.New("not a TIFF file")
	}

	tags, err := readIFD(raw, bo.Uint32(raw[4:8]), bo)
	if err != nil {
		return nil, err
	}

	width, ok := tagUint(tags, tagImageWidth)
	if !ok {
		return nil, goerr.New("missing ImageWidth tag")
	}
	height, ok := tagUint(tags, tagImageLength)
	if !ok {
		return nil, goerr.New("missing ImageLength tag")
	}
	if width == 0 || height == 0 || width*height > 1<<31 {
		return nil, goerr.New("unreasonable image size",
			goerr.V("width", width), goerr.V("height", height))
	}

	if c, ok := tagUint(tags, tagCompression); ok && c != compressionNone {
		return nil, goerr.New("compressed TIFF is not supported", goerr.V("compression", c))
	}
	if spp, ok := tagUint(tags, tagSamplesPerPixel); ok && spp != 1 {
		return nil, goerr.New("multi-band TIFF is not supported", goerr.V("samples", spp))
	}

	bits := uint64(1)
	if b, ok := tagUint(tags, tagBitsPerSample); ok {
		bits = b
	}
	format := uint64(sampleUint)
	if f, ok := tagUint(tags, tagSampleFormat); ok {
		format = f
	}
	bpp := int(bits / 8)
	if bpp < 1 || bpp > 8 || bits%8 != 0 {
		return nil, goerr.New("unsupported sample width", goerr.V("bits", bits))
	}

	offsets, okOff := tags[tagStripOffsets]
	counts, okCnt := tags[tagStripByteCounts]
	if !okOff || !okCnt || offsets.count != counts.count {
		return nil, goerr.New("missing or mismatched strip tags")
	}

	w, h := int(width), int(height)
	cells := make([]float64, w*h)
	idx := 0
	for s := 0; s < int(offsets.count); s++ {
		off, cnt := offsets.uint(s), counts.uint(s)
		seg, err := sliceBytes(raw, off, cnt)
		if err != nil {
			return nil, goerr.Wrap(err, "strip out of bounds", goerr.V("strip", s))
		}
		for p := 0; p+bpp <= len(seg) && idx < len(cells); p += bpp {
			cells[idx] = decodeSample(seg[p:], int(bits), format, bo)
			idx++
		}
	}
	if idx != len(cells) {
		return nil, goerr.New("strip data does not cover the image",
			goerr.V("expected", len(cells)), goerr.V("actual", idx))
	}

	cellSize, xll, yll := 1.0, 0.0, 0.0
	if scale, ok := tags[tagModelPixelScale]; ok && scale.count >= 2 {
		sx, sy := scale.double(0), scale.double(1)
		if math.Abs(sx-sy) > 1e-9*math.Abs(sx) {
			return nil, goerr.New("non-square cells are not supported",
				goerr.V("sx", sx), goerr.V("sy", sy))
		}
		cellSize = sx
		if tie, ok := tags[tagModelTiepoint]; ok && tie.count >= 6 {
			// tiepoint maps raster (i,j) onto model (x,y)
			i, j := tie.double(0), tie.double(1)
			x, y := tie.double(3), tie.double(4)
			xll = x - i*sx
			yll = (y + j*sy) - float64(h)*sy
		}
	}

	nodata := math.NaN()
	if tag, ok := tags[tagGDALNoData]; ok {
		s := strings.TrimSpace(tag.ascii())
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			nodata = v
		}
	}

	return &model.Raster{
		Width:    w,
		Height:   h,
		CellSize: cellSize,
		XLL:      xll,
		YLL:      yll,
		NoData:   nodata,
		Cells:    cells,
	}, nil
}

func readIFD(raw []byte, offset uint32, bo binary.ByteOrder) (map[uint16]*tiffTag, error) {
	hdr, err := sliceBytes(raw, uint64(offset), 2)
	if err != nil {
		return nil, goerr.Wrap(err, "IFD out of bounds")
	}
	n := int(bo.Uint16(hdr))

	entries, err := sliceBytes(raw, uint64(offset)+2, uint64(n)*12)
	if err != nil {
		return nil, goerr.Wrap(err, "IFD entries out of bounds")
	}

	tags := make(map[uint16]*tiffTag, n)
	for i := 0; i < n; i++ {
		e := entries[i*12:]
		tag := &tiffTag{
			typ:   bo.Uint16(e[2:4]),
			count: bo.Uint32(e[4:8]),
			bo:    bo,
		}
		size, ok := typeSizes[tag.typ]
		if !ok {
			continue // unknown field type, skip per the TIFF spec
		}
		total := uint64(size) * uint64(tag.count)
		if total <= 4 {
			tag.data = e[8 : 8+total]
		} else {
			tag.data, err = sliceBytes(raw, uint64(bo.Uint32(e[8:12])), total)
			if err != nil {
				return nil, goerr.Wrap(err, "tag value out of bounds",
					goerr.V("tag", bo.Uint16(e[0:2])))
			}
		}
		tags[bo.Uint16(e[0:2])] = tag
	}
	return tags, nil
}

func tagUint(tags map[uint16]*tiffTag, code uint16) (uint64, bool) {
	t, ok := tags[code]
	if !ok || t.count == 0 {
		return 0, false
	}
	return t.uint(0), true
}

func decodeSample(b []byte, bits int, format uint64, bo binary.ByteOrder) float64 {
	switch {
	case bits == 8 && format == sampleInt:
		return float64(int8(b[0]))
	case bits == 8:
		return float64(b[0])
	case bits == 16 && format == sampleInt:
		return float64(int16(bo.Uint16(b)))
	case bits == 16:
		return float64(bo.Uint16(b))
	case bits == 32 && format == sampleFloat:
		return float64(math.Float32frombits(bo.Uint32(b)))
	case bits == 32 && format == sampleInt:
		return float64(int32(bo.Uint32(b)))
	case bits == 32:
		return float64(bo.Uint32(b))
	case bits == 64 && format == sampleFloat:
		return math.Float64frombits(bo.Uint64(b))
	}
	return 0
}

func sliceBytes(raw []byte, off, n uint64) ([]byte, error) {
	if off+n > uint64(len(raw)) || off+n < off {
		return nil, goerr.New("range outside file",
			goerr.V("offset", off), goerr.V("length", n), goerr.V("file", len(raw)))
	}
	return raw[off : off+n], nil
}
