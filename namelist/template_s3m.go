package namelist

// templateS3M533 is ported from
// original_source/shybox/runner_toolkit/namelist/namelist_template_s3m.py's
// namelist_s3m_533.
var templateS3M533 = Template{
	"S3M_Snow": {
		{"a1dArctUp", Default([]interface{}{1.1, 1.1, 1.1, 1.1}, "")},
		{"a1dAltRange", Default([]interface{}{1500, 2000, 2500}, "")},
		{"iGlacierValue", Default(1, "")},
		{"dRhoSnowFresh", Default(200, "")},
		{"dRhoSnowMax", Default(400, "")},
		{"dRhoSnowMin", Default(67.9, "")},
		{"dSnowQualityThr", Default(0.3, "")},
		{"dMeltingTRef", Default(1, "")},
		{"dIceMeltingCoeff", Default(1, "")},
		{"iSWEassInfluence", Default(6, "")},
		{"dWeightSWEass", Default(0.25, "")},
		{"dRefreezingSc", Default(1.0, "")},
		{"dModFactorRadS", Default(1.125, "")},
		{"sWYstart", Default("09", "")},
		{"dDebrisThreshold", Default(0.2, "")},
		{"iDaysAvgTSuppressMelt", Default(10, "")},
	},

	"S3M_Namelist": {
		{"sDomainName", Mandatory("")},

		{"iFlagDebugSet", Default(0, "")},
		{"iFlagDebugLevel", Default(3, "")},

		{"iFlagTypeData_Forcing_Gridded", Default(3, "")},
		{"iFlagTypeData_Updating_Gridded", Default(3, "")},
		{"iFlagTypeData_Ass_SWE_Gridded", Default(3, "")},

		{"iFlagRestart", Mandatory("")},
		{"iFlagSnowAssim", Mandatory("")},
		{"iFlagSnowAssim_SWE", Default(0, "")},
		{"iFlagIceMassBalance", Default(0, "")},
		{"iFlagThickFromTerrData", Default(0, "")},
		{"iFlagGlacierDebris", Default(1, "")},
		{"iFlagOutputMode", Default(1, "")},
		{"iFlagAssOnlyPos", Default(0, "")},

		{"a1dGeoForcing", Mandatory("")},
		{"a1dResForcing", Mandatory("")},
		{"a1iDimsForcing", Mandatory("")},

		{"iSimLength", Mandatory("")},
		{"iDtModel", Mandatory("")},

		{"iDtData_Forcing", Mandatory("")},
		{"iDtData_Updating", Mandatory("")},
		{"iDtData_Output", Mandatory("")},
		{"iDtData_AssSWE", Mandatory("")},

		{"iScaleFactor_Forcing", Default(10, "")},
		{"iScaleFactor_Update", Default(100, "")},
		{"iScaleFactor_SWEass", Default(10, "")},

		{"sTimeStart", Mandatory("")},
		{"sTimeRestart", Mandatory("")},

		{"sPathData_Static_Gridded", Mandatory("")},
		{"sPathData_Forcing_Gridded", Mandatory("")},
		{"sPathData_Updating_Gridded", Mandatory("")},
		{"sPathData_Output_Gridded", Mandatory("")},
		{"sPathData_Restart_Gridded", Mandatory("")},
		{"sPathData_SWE_Assimilation_Gridded", Mandatory("")},
	},

	"S3M_Constants": {
		{"dRhoW", Default(1000, "")},
	},

	"S3M_Command": {
		{"sCommandZipFile", Default("gzip -f filenameunzip > LogZip.txt", "")},
		{"sCommandUnzipFile", Default("gunzip -c filenamezip > filenameunzip", "")},
		{"sCommandRemoveFile", Default("rm filename", "")},
		{"sCommandCreateFolder", Default("mkdir -p path", "")},
	},

	"S3M_Info": {
		{"sReleaseVersion", Default("5.3.3", "")},
		{"sAuthorNames", Default("Avanzi F., Gabellani S., Delogu F., Silvestro F.", "")},
		{"sReleaseDate", Default("2024/11/13", "")},
	},
}
