package ioformat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"os"

	"golang.org/x/image/tiff"
)

// GeoTIFFCodec reads/writes a single-band raster (spec.md §6). The
// Grid's CRS is taken from meta.CRS, defaulting to EPSG:4326; the
// file's own georeferencing is not read.
//
// Read decodes through golang.org/x/image/tiff and takes integer sample
// values (the 16-bit gray value, or the red channel of the decoded
// color); IEEE float samples are not decoded, so the float32 files
// Write produces are not read back as written.
//
// golang.org/x/image/tiff only decodes; it has no encoder. Rather than
// pull in an unrelated library for the write path (nothing in the
// retrieved pack ships a GeoTIFF encoder either), the writer here is a
// minimal hand-rolled single-strip, single-band float32 TIFF. See
// DESIGN.md for the full justification.
type GeoTIFFCodec struct{}

func (GeoTIFFCodec) Ext() string { return "tif" }

func (GeoTIFFCodec) Read(path string, meta Meta) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: geotiff open %s: %w", path, err)
	}
	defer f.Close()

	img, err := tiff.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("ioformat: geotiff decode %s: %w", path, err)
	}
	bounds := img.Bounds()
	g := &Grid{
		Rows:     bounds.Dy(),
		Cols:     bounds.Dx(),
		Data:     make([]float64, bounds.Dx()*bounds.Dy()),
		CellSize: 1,
		NoData:   math.NaN(),
		CRS:      crsOrDefault(meta.CRS),
	}
	gray, ok := img.(*image.Gray16)
	if ok {
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				g.Set(y, x, float64(gray.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return g, nil
	}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			g.Set(y, x, float64(r))
		}
	}
	return g, nil
}

// crsOrDefault returns crs unchanged unless empty, in which case it
// defaults to WGS84, matching spec.md §6's "CRS defaulted to EPSG:4326
// if the file carries none".
func crsOrDefault(crs string) string {
	if crs == "" {
		return "EPSG:4326"
	}
	return crs
}

// geotiffByteOrder is little-endian ("II"), matching the overwhelming
// majority of TIFF producers in this ecosystem (GDAL default).
var geotiffByteOrder = binary.LittleEndian

// Write emits a minimal uncompressed single-band float32 (SampleFormat
// 3) striped TIFF. No georeferencing tags are written: the Grid's
// origin, cell size and CRS are not stored in the file.
func (GeoTIFFCodec) Write(path string, g *Grid, _ Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioformat: geotiff create %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)

	const headerSize = 8
	pixelBytes := 4
	stripByteCount := g.Cols * g.Rows * pixelBytes
	dataOffset := uint32(headerSize)

	type ifdEntry struct {
		tag, typ uint16
		count    uint32
		value    uint32
	}
	entries := []ifdEntry{
		{256, 4, 1, uint32(g.Cols)},                // ImageWidth
		{257, 4, 1, uint32(g.Rows)},                // ImageLength
		{258, 3, 1, 32},                             // BitsPerSample
		{259, 3, 1, 1},                              // Compression: none
		{262, 3, 1, 1},                              // PhotometricInterpretation: BlackIsZero
		{273, 4, 1, dataOffset},                      // StripOffsets
		{277, 3, 1, 1},                              // SamplesPerPixel
		{278, 4, 1, uint32(g.Rows)},                 // RowsPerStrip
		{279, 4, 1, uint32(stripByteCount)},         // StripByteCounts
		{339, 3, 1, 3},                              // SampleFormat: IEEE float
	}
	ifdOffset := dataOffset + uint32(stripByteCount)

	// Header: byte order, magic 42, offset to first IFD.
	binary.Write(bw, geotiffByteOrder, [2]byte{'I', 'I'})
	binary.Write(bw, geotiffByteOrder, uint16(42))
	binary.Write(bw, geotiffByteOrder, ifdOffset)

	// Pixel data immediately follows the header, row-major, top row first.
	for _, v := range g.Data {
		binary.Write(bw, geotiffByteOrder, math.Float32bits(float32(v)))
	}

	// IFD.
	binary.Write(bw, geotiffByteOrder, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(bw, geotiffByteOrder, e.tag)
		binary.Write(bw, geotiffByteOrder, e.typ)
		binary.Write(bw, geotiffByteOrder, e.count)
		binary.Write(bw, geotiffByteOrder, e.value)
	}
	binary.Write(bw, geotiffByteOrder, uint32(0)) // no next IFD

	return bw.Flush()
}
