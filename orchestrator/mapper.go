package orchestrator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/c-hydro/shybox-go/internal/shylog"
)

// Row is one resolved unit of work: a tag-scoped input variable paired
// with the workflow (process name) that consumes it and the output
// variable (if any) that workflow's result feeds, grounded on
// original_source/shybox/orchestrator_toolkit/mapper_handler.py's
// compact_rows.
type Row struct {
	Tag       string
	In        string
	Workflow  string
	Out       string
	ID        int
	Reference string
}

// Mapper binds variable names to workflow tags and builds the
// per-row execution plan (spec.md §3 "Mapper").
//
// inMap is tag -> input variable -> workflow name, taken from each
// input handle's file_namespace binding. outMap is tag -> workflow
// name -> output variable, taken from each output handle's
// file_namespace binding (the output side binds in the opposite
// direction from the input side, since an output handle declares
// which workflow produces each of its variables rather than which
// workflow consumes them).
type Mapper struct {
	logger *shylog.Logger
	inMap  map[string]map[string]string
	outMap map[string]map[string]string
}

// NewMapper builds a Mapper from the in/out file_namespace bindings
// assembled during orchestrator factory construction.
func NewMapper(inMap, outMap map[string]map[string]string, logger *shylog.Logger) *Mapper {
	if logger == nil {
		logger = shylog.New(nil)
	}
	return &Mapper{logger: logger, inMap: inMap, outMap: outMap}
}

// CompactRows returns one row per (tag, input variable), IDs assigned
// in tag-then-variable sorted order starting at startID.
func (m *Mapper) CompactRows(startID int) []Row {
	var rows []Row
	nextID := startID

	tags := make([]string, 0, len(m.inMap))
	for tag := range m.inMap {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		inVars := make([]string, 0, len(m.inMap[tag]))
		for v := range m.inMap[tag] {
			inVars = append(inVars, v)
		}
		sort.Strings(inVars)

		for _, inVar := range inVars {
			workflow := m.inMap[tag][inVar]
			outVar := m.outMap[tag][workflow]
			if outVar == "" {
				m.logger.Warnf("orchestrator: no output variable bound to workflow %q under tag %q", workflow, tag)
			}
			rows = append(rows, Row{
				Tag:       tag,
				In:        inVar,
				Workflow:  workflow,
				Out:       outVar,
				ID:        nextID,
				Reference: tag + ":" + workflow,
			})
			nextID++
		}
	}
	return rows
}

// GetRowsByPriority returns CompactRows with priorityVars brought to
// the front (in the given order, matched against field "in" or
// "workflow"), the remainder sorted by field.
func (m *Mapper) GetRowsByPriority(priorityVars []string, field string) []Row {
	rows := m.CompactRows(1)
	if len(priorityVars) == 0 {
		return rows
	}

	rank := make(map[string]int, len(priorityVars))
	for i, v := range priorityVars {
		rank[v] = i
	}

	var priority, others []Row
	for _, r := range rows {
		if _, ok := rank[fieldValue(r, field)]; ok {
			priority = append(priority, r)
		} else {
			others = append(others, r)
		}
	}
	sort.SliceStable(priority, func(i, j int) bool {
		return rank[fieldValue(priority[i], field)] < rank[fieldValue(priority[j], field)]
	})
	sort.Slice(others, func(i, j int) bool { return fieldValue(others[i], field) < fieldValue(others[j], field) })

	return append(priority, others...)
}

func fieldValue(r Row, field string) string {
	switch field {
	case "workflow":
		return r.Workflow
	case "out":
		return r.Out
	case "reference":
		return r.Reference
	default:
		return r.In
	}
}

// View returns a tabular summary of the resolved execution plan,
// grounded on mapper_handler.py's logging of the built mapping and
// the teacher's Cfg.View-adjacent table printers in inmaputil
// (spec.md §13 supplemented feature).
func (m *Mapper) View() string {
	rows := m.CompactRows(1)
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-16s %-12s %-20s %-20s\n", "id", "tag", "workflow", "in", "out")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-4s %-16s %-12s %-20s %-20s\n", strconv.Itoa(r.ID), r.Tag, r.Workflow, r.In, r.Out)
	}
	return b.String()
}
