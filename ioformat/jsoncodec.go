package ioformat

import (
	"encoding/json"
	"fmt"

	"github.com/c-hydro/shybox-go/internal/zipio"
)

// JSONCodec reads/writes a Grid as a JSON object, used for settings
// fragments and execution manifests that happen to carry gridded
// payloads (most JSON traffic in SHYBOX goes through config/runner
// directly via encoding/json; this codec exists for Dataset Handles
// declared file_format=="json").
type JSONCodec struct{}

func (JSONCodec) Ext() string { return "json" }

type jsonGrid struct {
	Rows, Cols int       `json:"rows"`
	Data       []float64 `json:"data"`
	XLL        float64   `json:"xllcorner"`
	YLL        float64   `json:"yllcorner"`
	CellSize   float64   `json:"cellsize"`
	NoData     float64   `json:"nodata_value"`
	CRS        string    `json:"crs,omitempty"`
}

func (JSONCodec) Read(path string, _ Meta) (*Grid, error) {
	r, err := zipio.Reader(path, zipio.KindForPath(path))
	if err != nil {
		return nil, fmt.Errorf("ioformat: json open %s: %w", path, err)
	}
	defer r.Close()

	var jg jsonGrid
	if err := json.NewDecoder(r).Decode(&jg); err != nil {
		return nil, fmt.Errorf("ioformat: json decode %s: %w", path, err)
	}
	return &Grid{Rows: jg.Rows, Cols: jg.Cols, Data: jg.Data, XLL: jg.XLL, YLL: jg.YLL, CellSize: jg.CellSize, NoData: jg.NoData, CRS: jg.CRS}, nil
}

func (JSONCodec) Write(path string, g *Grid, meta Meta) error {
	w, err := zipio.Writer(path, zipio.KindForPath(path))
	if err != nil {
		return fmt.Errorf("ioformat: json create %s: %w", path, err)
	}
	defer w.Close()

	jg := jsonGrid{Rows: g.Rows, Cols: g.Cols, Data: g.Data, XLL: g.XLL, YLL: g.YLL, CellSize: g.CellSize, NoData: g.NoData, CRS: crsOrDefault(meta.CRS)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jg); err != nil {
		return fmt.Errorf("ioformat: json encode %s: %w", path, err)
	}
	return nil
}
