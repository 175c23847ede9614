package namelist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hmcMandatoryValues() map[string]interface{} {
	return map[string]interface{}{
		"sDomainName":               "italy",
		"iFlagRestart":              0,
		"a1dGeoForcing":             []interface{}{1.0, 2.0},
		"a1dResForcing":             []interface{}{0.01, 0.01},
		"a1iDimsForcing":            []interface{}{100, 100},
		"iSimLength":                24,
		"iDtModel":                  3600,
		"iDtData_Forcing":           3600,
		"iDtData_Updating":          3600,
		"iDtData_Output":            3600,
		"sTimeStart":                "202501240000",
		"sTimeRestart":              "202501230000",
		"sPathData_Static_Gridded":  "/data/static",
		"sPathData_Forcing_Gridded": "/data/forcing",
		"sPathData_Updating_Gridded": "/data/updating",
		"sPathData_Output_Gridded":  "/data/output",
		"sPathData_Restart_Gridded": "/data/restart",
	}
}

func TestGetUnknownTemplate(t *testing.T) {
	if _, err := Get("hmc", "9.9.9"); err == nil {
		t.Fatal("expected ErrUnknownTemplate")
	}
}

func TestResolveMissingMandatory(t *testing.T) {
	m, err := New("hmc", "3.1.6")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Resolve(nil, nil); err == nil {
		t.Fatal("expected mandatory-variable error")
	}
}

func TestResolveAndRender(t *testing.T) {
	m, err := New("hmc", "3.1.6")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Resolve(hmcMandatoryValues(), nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	text, err := m.Render("  ")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(text, "&HMC_Namelist") {
		t.Error("missing &HMC_Namelist group header")
	}
	if !strings.Contains(text, "sDomainName = 'italy',") {
		t.Errorf("missing quoted sDomainName assignment, got:\n%s", text)
	}
	if !strings.Contains(text, "/\n") {
		t.Error("missing group terminator")
	}
}

func TestByPatternOverridesByValue(t *testing.T) {
	m, err := New("hmc", "3.1.6")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	values := hmcMandatoryValues()
	values["iFlagDebugSet"] = 1
	byPattern := map[string]map[string]interface{}{
		"HMC_Namelist": {"iFlagDebugSet": 2},
	}
	if err := m.Resolve(values, byPattern); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	text, _ := m.Render("  ")
	if !strings.Contains(text, "iFlagDebugSet = 2,") {
		t.Errorf("by_pattern should win over by_value, got:\n%s", text)
	}
}

func TestWriteToASCIIAtomic(t *testing.T) {
	m, err := New("s3m", "5.3.3")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	values := map[string]interface{}{
		"sDomainName":      "italy",
		"iFlagRestart":     0,
		"iFlagSnowAssim":   0,
		"a1dGeoForcing":    []interface{}{1.0, 2.0},
		"a1dResForcing":    []interface{}{0.01, 0.01},
		"a1iDimsForcing":   []interface{}{100, 100},
		"iSimLength":       24,
		"iDtModel":         3600,
		"iDtData_Forcing":  3600,
		"iDtData_Updating": 3600,
		"iDtData_Output":   3600,
		"iDtData_AssSWE":   3600,
		"sTimeStart":       "202501240000",
		"sTimeRestart":     "202501230000",
		"sPathData_Static_Gridded":           "/data/static",
		"sPathData_Forcing_Gridded":          "/data/forcing",
		"sPathData_Updating_Gridded":         "/data/updating",
		"sPathData_Output_Gridded":           "/data/output",
		"sPathData_Restart_Gridded":          "/data/restart",
		"sPathData_SWE_Assimilation_Gridded": "/data/swe",
	}
	if err := m.Resolve(values, nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "s3m.nml")
	if err := m.WriteToASCII(path, false, true); err != nil {
		t.Fatalf("WriteToASCII: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "&S3M_Namelist") {
		t.Error("missing &S3M_Namelist group header")
	}

	if err := m.WriteToASCII(path, false, true); err == nil {
		t.Fatal("expected overwrite=false to reject existing file")
	}
}

func TestViewListsResolvedVariables(t *testing.T) {
	m, err := New("hmc", "3.1.6")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Resolve(hmcMandatoryValues(), nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	view := m.View()
	if !strings.Contains(view, "HMC_Namelist:sDomainName") {
		t.Errorf("View missing expected row:\n%s", view)
	}
}
