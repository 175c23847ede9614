package orchestrator

import (
	"sort"

	"github.com/c-hydro/shybox-go/dataset"
	"github.com/c-hydro/shybox-go/process"
)

// StepSpec declares one configured process call (spec.md §4.4's
// "workflow specification: list of process calls per variable").
// Tag scopes the step to one row-tag from the mapper; an empty Tag
// applies the step to every tag.
type StepSpec struct {
	Process string
	Tag     string
	Args    map[string]interface{}
	// Deps names dependency handles (resolved from the orchestrator's
	// FileDeps-derived deps map) this step's descriptor declares.
	Deps map[string]*dataset.Handle
}

// step is a StepSpec resolved against the Process Registry, annotated
// with whether it forces a break point.
type step struct {
	spec       StepSpec
	descriptor process.Descriptor
	breakPoint bool
}

// buildPairsAndProcess pairs each tag's input handles' file_variable
// entries with the workflow (process name) bound via file_namespace,
// generalized from spec.md §4.4 bullet 2 / mapper_handler.py's
// build_pairs_and_process. FileNamespace is workflow -> variable on
// every handle (dataset.Handle's own documented convention), so the
// input side is inverted to variable -> workflow while the output
// side is kept as workflow -> variable.
func buildPairsAndProcess(inPkg, outPkg map[string][]*dataset.Handle) (inMap, outMap map[string]map[string]string) {
	inMap = map[string]map[string]string{}
	outMap = map[string]map[string]string{}

	for tag, handles := range inPkg {
		bound := map[string]string{}
		for _, h := range handles {
			for workflow, variable := range h.FileNamespace {
				bound[variable] = workflow // dedup by variable; last handle wins
			}
			// A handle with no namespace binding still advertises its
			// file_variable entries directly under its own tag name.
			if len(h.FileNamespace) == 0 {
				for _, v := range h.FileVariable {
					if _, ok := bound[v]; !ok {
						bound[v] = tag
					}
				}
			}
		}
		inMap[tag] = bound
	}

	for tag, handles := range outPkg {
		bound := map[string]string{}
		for _, h := range handles {
			for workflow, variable := range h.FileNamespace {
				bound[workflow] = variable
			}
		}
		outMap[tag] = bound
	}
	return inMap, outMap
}

// buildChain resolves each StepSpec against the Process Registry and
// compiles the linear step list plus its break-point indices
// (spec.md §4.4 bullet 5, §3 "Orchestrator state").
func buildChain(specs []StepSpec) ([]step, []int, error) {
	if len(specs) == 0 {
		return nil, nil, &ErrNoProcessesConfigured{}
	}
	steps := make([]step, 0, len(specs))
	var breaks []int
	for i, spec := range specs {
		desc, ok := process.Lookup(spec.Process)
		if !ok {
			return nil, nil, &ErrVariableCoverageFailure{Tag: spec.Tag, Variable: spec.Process, Reason: "process not registered"}
		}
		forcesBreak := !desc.ContinuousSpace || desc.InputTiles || desc.OutputTiles
		steps = append(steps, step{spec: spec, descriptor: desc, breakPoint: forcesBreak})
		if forcesBreak {
			breaks = append(breaks, i)
		}
	}
	return steps, breaks, nil
}

// partitionAtBreaks splits steps into contiguous blocks, one boundary
// at and after each index in breaks (spec.md §4.4 run_single_ts: "a
// contiguous block of continuous-space processors is executed across
// all available tiles... at a break point, the block is flushed, the
// break-point process itself runs once... the next block begins").
func partitionAtBreaks(steps []step, breaks []int) [][]step {
	breakSet := make(map[int]bool, len(breaks))
	for _, b := range breaks {
		breakSet[b] = true
	}
	sorted := append([]int(nil), breaks...)
	sort.Ints(sorted)

	var blocks [][]step
	start := 0
	for _, b := range sorted {
		if b > start {
			blocks = append(blocks, steps[start:b])
		}
		blocks = append(blocks, steps[b:b+1]) // the break-point process runs alone
		start = b + 1
	}
	if start < len(steps) {
		blocks = append(blocks, steps[start:])
	}
	return blocks
}
