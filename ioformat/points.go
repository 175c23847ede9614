package ioformat

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/c-hydro/shybox-go/internal/zipio"
)

// Point registries (spec.md §6 "Point files (HMC): dam, intake, joint,
// lake, section") are record-oriented, not gridded, so they sit
// outside the Grid/Codec abstraction used by the raster formats.
// Parsing is ported line-for-line from the original Python reader
// (hyms/io_toolkit/lib_io_ascii_point.py): a leading record count,
// `#`-delimited comments stripped per line, and a fixed field sequence
// per record type.

// Section is one row of a points_section_db registry: x/y location,
// catchment/section identifiers, and warning thresholds.
type Section struct {
	X, Y              float64
	Catchment, Name   string
	Code              string
	Area              float64
	Threshold1        float64
	Threshold2        float64
}

// ReadSections parses a whitespace-delimited section registry, one
// record per line with no leading count (spec.md's "section" point
// type), matching get_file_point_section's default column layout.
func ReadSections(path string) ([]Section, error) {
	lines, err := readPointLines(path)
	if err != nil {
		return nil, err
	}
	out := make([]Section, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("ioformat: section registry %s: line %q has fewer than 4 columns", path, line)
		}
		s := Section{}
		s.X, _ = strconv.ParseFloat(fields[0], 64)
		s.Y, _ = strconv.ParseFloat(fields[1], 64)
		s.Catchment = fields[2]
		if len(fields) > 3 {
			s.Name = fields[3]
		}
		if len(fields) > 4 {
			s.Code = fields[4]
		}
		if len(fields) > 5 {
			s.Area, _ = strconv.ParseFloat(fields[5], 64)
		}
		if len(fields) > 6 {
			s.Threshold1, _ = strconv.ParseFloat(fields[6], 64)
		}
		if len(fields) > 7 {
			s.Threshold2, _ = strconv.ParseFloat(fields[7], 64)
		}
		out = append(out, s)
	}
	return out, nil
}

// Plant is one turbine/release point nested under a Dam record.
type Plant struct {
	Name            string
	IdxJ, IdxI      int
	TC              int
	DischargeMax    float64
	DischargeFlag   int
}

// Dam is one dam record plus its associated plants, keyed in the
// registry as "dam_name:plant_name".
type Dam struct {
	Name            string
	IdxJ, IdxI      int
	LakeCode        int
	VolumeMax       float64
	VolumeInit      float64
	DischargeMax    float64
	LevelMax        float64
	HMax            float64
	LinCoeff        float64
	StorageCurve    string
	Plants          []Plant
}

// ReadDams parses an HMC dam registry: record counts (dam count, plant
// count) followed by one block per dam, each block containing the
// dam's own fields followed by one sub-block per plant — ported from
// get_file_point_dam.
func ReadDams(path string) ([]Dam, error) {
	lines, err := readPointLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("ioformat: dam registry %s: truncated header", path)
	}
	damN, err := strconv.Atoi(strings.Fields(lines[0])[0])
	if err != nil {
		return nil, fmt.Errorf("ioformat: dam registry %s: dam count: %w", path, err)
	}
	if damN == 0 {
		return nil, nil
	}

	row := 2
	out := make([]Dam, 0, damN)
	for d := 0; d < damN; d++ {
		row++ // unused descriptive line
		row++
		dam := Dam{Name: lines[row]}
		row++
		idx, err := parseIntPair(lines[row])
		if err != nil {
			return nil, fmt.Errorf("ioformat: dam registry %s: %w", path, err)
		}
		dam.IdxJ, dam.IdxI = idx[0], idx[1]
		row++
		plantN, _ := strconv.Atoi(lines[row])
		row++
		dam.LakeCode, _ = strconv.Atoi(lines[row])
		row++
		dam.VolumeMax, _ = strconv.ParseFloat(lines[row], 64)
		row++
		dam.VolumeInit, _ = strconv.ParseFloat(lines[row], 64)
		row++
		dam.DischargeMax, _ = strconv.ParseFloat(lines[row], 64)
		row++
		dam.LevelMax, _ = strconv.ParseFloat(lines[row], 64)
		row++
		dam.HMax, _ = strconv.ParseFloat(lines[row], 64)
		row++
		dam.LinCoeff, _ = strconv.ParseFloat(lines[row], 64)
		row++
		dam.StorageCurve = lines[row]

		for p := 0; p < plantN; p++ {
			row++
			pl := Plant{Name: lines[row]}
			row++
			pidx, err := parseIntPair(lines[row])
			if err != nil {
				return nil, fmt.Errorf("ioformat: dam registry %s: plant idx: %w", path, err)
			}
			pl.IdxJ, pl.IdxI = pidx[0], pidx[1]
			row++
			pl.TC, _ = strconv.Atoi(lines[row])
			row++
			pl.DischargeMax, _ = strconv.ParseFloat(lines[row], 64)
			row++
			pl.DischargeFlag, _ = strconv.Atoi(lines[row])
			dam.Plants = append(dam.Plants, pl)
		}
		out = append(out, dam)
		row++
	}
	return out, nil
}

// Intake is one release point plus its dependent catchments, ported
// from get_file_point_intake.
type Intake struct {
	ReleaseName string
	IdxJ, IdxI  int
	Catchments  []IntakeCatchment
}

type IntakeCatchment struct {
	Name               string
	TC                 int
	IdxJ, IdxI         int
	DischargeMax       float64
	DischargeMin       float64
	DischargeWeight    float64
}

// ReadIntakes parses an HMC intake registry.
func ReadIntakes(path string) ([]Intake, error) {
	lines, err := readPointLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("ioformat: intake registry %s: truncated header", path)
	}
	releaseN, err := strconv.Atoi(lines[1])
	if err != nil {
		return nil, fmt.Errorf("ioformat: intake registry %s: release count: %w", path, err)
	}
	if releaseN == 0 {
		return nil, nil
	}

	row := 1
	out := make([]Intake, 0, releaseN)
	for r := 0; r < releaseN; r++ {
		row++ // descriptive line
		rel := Intake{ReleaseName: lines[row]}
		row++
		idx, err := parseIntPair(lines[row])
		if err != nil {
			return nil, fmt.Errorf("ioformat: intake registry %s: %w", path, err)
		}
		rel.IdxJ, rel.IdxI = idx[0], idx[1]
		row++
		catchN, _ := strconv.Atoi(lines[row])

		for c := 0; c < catchN; c++ {
			row++
			catch := IntakeCatchment{Name: lines[row]}
			row++
			catch.TC, _ = strconv.Atoi(lines[row])
			row++
			cidx, err := parseIntPair(lines[row])
			if err != nil {
				return nil, fmt.Errorf("ioformat: intake registry %s: %w", path, err)
			}
			catch.IdxJ, catch.IdxI = cidx[0], cidx[1]
			row++
			catch.DischargeMax, _ = strconv.ParseFloat(lines[row], 64)
			row++
			catch.DischargeMin, _ = strconv.ParseFloat(lines[row], 64)
			row++
			catch.DischargeWeight, _ = strconv.ParseFloat(lines[row], 64)
			rel.Catchments = append(rel.Catchments, catch)
		}
		out = append(out, rel)
		row++
	}
	return out, nil
}

// Lake is one lake registry record, ported from get_file_point_lake.
type Lake struct {
	Name             string
	IdxJ, IdxI       int
	CellCode         int
	VolumeMin        float64
	VolumeInit       float64
	ConstantDraining float64
}

// ReadLakes parses an HMC lake registry.
func ReadLakes(path string) ([]Lake, error) {
	lines, err := readPointLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) < 1 {
		return nil, fmt.Errorf("ioformat: lake registry %s: truncated header", path)
	}
	lakeN, err := strconv.Atoi(lines[0])
	if err != nil {
		return nil, fmt.Errorf("ioformat: lake registry %s: lake count: %w", path, err)
	}
	if lakeN == 0 {
		return nil, nil
	}

	row := 0
	out := make([]Lake, 0, lakeN)
	for l := 0; l < lakeN; l++ {
		row++ // descriptive line
		lake := Lake{Name: lines[row]}
		row++
		lake.Name = lines[row]
		row++
		idx, err := parseIntPair(lines[row])
		if err != nil {
			return nil, fmt.Errorf("ioformat: lake registry %s: %w", path, err)
		}
		lake.IdxJ, lake.IdxI = idx[0], idx[1]
		row++
		lake.CellCode, _ = strconv.Atoi(lines[row])
		row++
		lake.VolumeMin, _ = strconv.ParseFloat(lines[row], 64)
		row++
		lake.VolumeInit, _ = strconv.ParseFloat(lines[row], 64)
		row++
		lake.ConstantDraining, _ = strconv.ParseFloat(lines[row], 64)
		out = append(out, lake)
		row++
	}
	return out, nil
}

// JointCount reads just the leading record count of a joint registry.
// A nonzero count is unsupported (the original reader raises
// NotImplementedError for this case too), matching get_file_point_joint.
func JointCount(path string) (int, error) {
	lines, err := readPointLines(path)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("ioformat: joint registry %s: empty file", path)
	}
	n, err := strconv.Atoi(lines[0])
	if err != nil {
		return 0, fmt.Errorf("ioformat: joint registry %s: joint count: %w", path, err)
	}
	if n > 0 {
		return n, fmt.Errorf("ioformat: joint registry %s: reading joints is not implemented", path)
	}
	return 0, nil
}

// readPointLines reads a point-registry file's lines, stripping the
// `#`-delimited trailing comment from each (parse_row2str's job in the
// original reader) and dropping blank lines.
func readPointLines(path string) ([]string, error) {
	r, err := zipio.Reader(path, zipio.KindForPath(path))
	if err != nil {
		return nil, fmt.Errorf("ioformat: point registry open %s: %w", path, err)
	}
	defer r.Close()

	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: point registry %s: %w", path, err)
	}
	return out, nil
}

func parseIntPair(line string) ([2]int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return [2]int{}, fmt.Errorf("expected two indices in %q", line)
	}
	j, err := strconv.Atoi(fields[0])
	if err != nil {
		return [2]int{}, err
	}
	i, err := strconv.Atoi(fields[1])
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{j, i}, nil
}
