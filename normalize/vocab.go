package normalize

// Process-wide read-only lookup tables. Initialized once, never mutated
// during a run; any candidate code outside the closed vocabularies is
// dropped before output.

// ProblemVocab is the closed set of problem codes a record may carry.
var ProblemVocab = map[string]bool{
	"ipertensione":         true,
	"diabete_tipo_2":       true,
	"lesione_da_pressione": true,
	"dolore_cronico":       true,
	"scompenso_cardiaco":   true,
	"bpco":                 true,
	"caduta":               true,
	"rischio_caduta":       true,
	"disidratazione":       true,
	"malnutrizione":        true,
}

// SynonymMap maps free-text problem mentions to their vocabulary code.
var SynonymMap = map[string]string{
	// cardio
	"ipertensione arteriosa": "ipertensione",
	"pressione alta":         "ipertensione",
	"scompenso cardiaco":     "scompenso_cardiaco",

	// diabetes
	"diabete tipo 2":         "diabete_tipo_2",
	"diabete mellito tipo 2": "diabete_tipo_2",

	// wounds
	"lesione da pressione": "lesione_da_pressione",
	"piaga da decubito":    "lesione_da_pressione",
	"ulcera da pressione":  "lesione_da_pressione",

	// respiratory
	"bpco":              "bpco",
	"bronchite cronica": "bpco",

	// falls
	"caduta":         "caduta",
	"rischio caduta": "rischio_caduta",

	// hydration / nutrition
	"scarso appetito":  "malnutrizione",
	"inappetenza":      "malnutrizione",
	"ridotto appetito": "malnutrizione",
	"mangia poco":      "malnutrizione",
	"non mangia":       "malnutrizione",
	"disidratazione":   "disidratazione",
	"poca idratazione": "disidratazione",
}

// InterventionVocab is the closed set of intervention codes.
var InterventionVocab = map[string]bool{
	"medicazione":                true,
	"controllo_parametri_vitali": true,
	"educazione_sanitaria":       true,
	"gestione_terapia":           true,
	"prelievo_ematico":           true,
}

// InterventionSynonyms maps loose intervention mentions to their code.
var InterventionSynonyms = map[string]string{
	"bendaggio":                "medicazione",
	"medicazione ferita":       "medicazione",
	"cambio medicazione":       "medicazione",
	"controllo parametri":      "controllo_parametri_vitali",
	"rilevazione parametri":    "controllo_parametri_vitali",
	"misurazione parametri":    "controllo_parametri_vitali",
	"educazione sanitaria":     "educazione_sanitaria",
	"educazione al caregiver":  "educazione_sanitaria",
	"gestione terapia":         "gestione_terapia",
	"somministrazione terapia": "gestione_terapia",
	"verifica terapia":         "gestione_terapia",
	"prelievo":                 "prelievo_ematico",
	"prelievo ematico":         "prelievo_ematico",
}
