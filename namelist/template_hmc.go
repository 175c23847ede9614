package namelist

// templateHMC316 covers HMC's core namelist groups as referenced by
// handler_app_namelist.py's select_namelist map ('hmc:3.1.6'); the
// variable set follows the same sDomainName/iFlag*/sPathData_* naming
// convention namelist_template_s3m.py uses for the sibling model.
var templateHMC316 = Template{
	"HMC_Namelist": {
		{"sDomainName", Mandatory("")},

		{"iFlagDebugSet", Default(0, "")},
		{"iFlagDebugLevel", Default(3, "")},

		{"iFlagTypeData_Forcing_Gridded", Default(1, "")},
		{"iFlagTypeData_Updating_Gridded", Default(1, "")},
		{"iFlagTypeData_Output_Gridded", Default(1, "")},
		{"iFlagRestart", Mandatory("")},
		{"iFlagSnow", Default(0, "")},
		{"iFlagSMGravFlux", Default(1, "")},

		{"a1dGeoForcing", Mandatory("")},
		{"a1dResForcing", Mandatory("")},
		{"a1iDimsForcing", Mandatory("")},

		{"iSimLength", Mandatory("")},
		{"iDtModel", Mandatory("")},
		{"iDtData_Forcing", Mandatory("")},
		{"iDtData_Updating", Mandatory("")},
		{"iDtData_Output", Mandatory("")},

		{"sTimeStart", Mandatory("")},
		{"sTimeRestart", Mandatory("")},

		{"sPathData_Static_Gridded", Mandatory("")},
		{"sPathData_Forcing_Gridded", Mandatory("")},
		{"sPathData_Updating_Gridded", Mandatory("")},
		{"sPathData_Output_Gridded", Mandatory("")},
		{"sPathData_Restart_Gridded", Mandatory("")},
	},

	"HMC_Constants": {
		{"dRhoW", Default(1000, "")},
		{"a1dAlgorithmInfo", Default([]interface{}{1, 1, 1}, "")},
	},

	"HMC_Command": {
		{"sCommandZipFile", Default("gzip -f filenameunzip > LogZip.txt", "")},
		{"sCommandUnzipFile", Default("gunzip -c filenamezip > filenameunzip", "")},
		{"sCommandRemoveFile", Default("rm filename", "")},
		{"sCommandCreateFolder", Default("mkdir -p path", "")},
	},

	"HMC_Info": {
		{"sReleaseVersion", Default("3.1.6", "")},
		{"sAuthorNames", Default("Silvestro F., Gabellani S., Delogu F.", "")},
	},
}

// templateHMC320 adds lake/dam routing flags introduced at 3.2.0.
var templateHMC320 = withOverrides(templateHMC316, Template{
	"HMC_Namelist": {
		{"iFlagLakeParams", Default(0, "")},
		{"iFlagDamParams", Default(0, "")},
	},
	"HMC_Info": {
		{"sReleaseVersion", Default("3.2.0", "")},
	},
})

// templateHMC330 adds glacier mass balance support introduced at 3.3.0.
var templateHMC330 = withOverrides(templateHMC320, Template{
	"HMC_Namelist": {
		{"iFlagGlacierMassBalance", Default(0, "")},
	},
	"HMC_Info": {
		{"sReleaseVersion", Default("3.3.0", "")},
	},
})

// withOverrides returns a deep-enough copy of base with overlay's
// groups/vars merged in, used to express version-to-version deltas
// without repeating every unchanged variable. An overlay entry whose
// name already exists in the group replaces it in place, preserving
// base's declared order; a genuinely new entry is appended after it.
func withOverrides(base Template, overlay Template) Template {
	out := make(Template, len(base))
	for group, entries := range base {
		out[group] = append(Group(nil), entries...)
	}
	for group, entries := range overlay {
		merged := out[group]
		for _, e := range entries {
			replaced := false
			for i, existing := range merged {
				if existing.Name == e.Name {
					merged[i] = e
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, e)
			}
		}
		out[group] = merged
	}
	return out
}
