package extract

import (
	"adicare.it/ace/utils"
	"regexp"
	"strconv"
	"strings"
)

// Plausibility bounds. These exist to reject date fragments and line numbers
// that slip through the patterns; they are not medical validation. Two bound
// variants circulated for heart rate ([30,220] vs [20,250]) and temperature
// ([30,43] vs [30,45]); the stricter pair is the one in force here.
const (
	bpSystolicMin  = 70
	bpSystolicMax  = 250
	bpDiastolicMin = 40
	bpDiastolicMax = 150

	heartRateMin = 30
	heartRateMax = 220

	temperatureMin = 30.0
	temperatureMax = 43.0

	spo2Min = 50
	spo2Max = 100
)

// Lines without one of these tokens are never considered for blood pressure.
var bpCueTokens = []string{
	"pa", "pressione", "parametri", "valori", "mmhg",
	"fc", "bpm", "temp", "spo2", "saturazione",
}

var dateTokenPattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)

func acceptBP(groups []string) bool {
	systolic, _ := strconv.Atoi(groups[1])
	diastolic, _ := strconv.Atoi(groups[2])
	return systolic >= bpSystolicMin && systolic <= bpSystolicMax &&
		diastolic >= bpDiastolicMin && diastolic <= bpDiastolicMax
}

var bpCascade = Cascade{
	{Pattern: regexp.MustCompile(`(?i)\bPA\s*[:=]\s*(\d{2,3})\s*/\s*(\d{2,3})\b`), Accept: acceptBP},
	{Pattern: regexp.MustCompile(`(?i)\bPA\s*(\d{2,3})\s*/\s*(\d{2,3})\b`), Accept: acceptBP},
	{Pattern: regexp.MustCompile(`(?i)\bpressione\s*(\d{2,3})\s*[-/]\s*(\d{2,3})\b`), Accept: acceptBP},
	{Pattern: regexp.MustCompile(`(?i)\b(\d{2,3})\s*/\s*(\d{2,3})\s*(?:mmhg)?\b`), Accept: acceptBP},
	// last resort
	{Pattern: regexp.MustCompile(`(?i)\b(\d{2,3})\s*-\s*(\d{2,3})\b`), Accept: acceptBP},
}

// BloodPressure extracts a systolic/diastolic pair without ever misreading a
// date such as 24/02/2026 as a reading. Gating happens before matching: only
// lines carrying a clinical cue token are scanned at all, and a cued line
// that also carries a date-shaped token is dropped unless it names the
// pressure explicitly.
func BloodPressure(text string) (*int, *int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)

		cued := false
		for _, cue := range bpCueTokens {
			if strings.Contains(low, cue) {
				cued = true
				break
			}
		}
		if !cued {
			continue
		}

		if dateTokenPattern.MatchString(line) &&
			!strings.Contains(low, "pa") && !strings.Contains(low, "pressione") {
			continue
		}

		groups, isOk := bpCascade.FirstMatch(line)
		if !isOk {
			continue
		}
		systolic, _ := strconv.Atoi(groups[1])
		diastolic, _ := strconv.Atoi(groups[2])
		return &systolic, &diastolic
	}
	return nil, nil
}

func acceptIntRange(min, max int) func(groups []string) bool {
	return func(groups []string) bool {
		value, err := strconv.Atoi(groups[1])
		return err == nil && value >= min && value <= max
	}
}

var heartRateCascade = Cascade{
	{Pattern: regexp.MustCompile(`(?i)\bFC\s*[:=]?\s*(\d{2,3})\b`), Accept: acceptIntRange(heartRateMin, heartRateMax)},
	{Pattern: regexp.MustCompile(`(?i)\bHR\s*[:=]?\s*(\d{2,3})\b`), Accept: acceptIntRange(heartRateMin, heartRateMax)},
	{Pattern: regexp.MustCompile(`(?i)\bfrequenza\s*(\d{2,3})\s*(?:bpm)?\b`), Accept: acceptIntRange(heartRateMin, heartRateMax)},
	{Pattern: regexp.MustCompile(`(?i)\b(\d{2,3})\s*bpm\b`), Accept: acceptIntRange(heartRateMin, heartRateMax)},
}

// HeartRate handles "FC 76", "FC=74", "frequenza 80 bpm" and bare "80 bpm".
func HeartRate(text string) *int {
	groups, isOk := heartRateCascade.FirstMatch(text)
	if !isOk {
		return nil
	}
	value, _ := strconv.Atoi(groups[1])
	return &value
}

func acceptTemperature(groups []string) bool {
	value, err := strconv.ParseFloat(strings.Replace(groups[1], ",", ".", 1), 64)
	return err == nil && value >= temperatureMin && value <= temperatureMax
}

var temperatureCascade = Cascade{
	{Pattern: regexp.MustCompile(`(?i)\btemperatura\s*[:=]?\s*(\d{1,2}[.,]\d)\b`), Accept: acceptTemperature},
	{Pattern: regexp.MustCompile(`(?i)\btemp\s*[:=]?\s*(\d{1,2}[.,]\d)\b`), Accept: acceptTemperature},
	{Pattern: regexp.MustCompile(`(?i)\bT\s*[:=]?\s*(\d{1,2}[.,]\d)\b`), Accept: acceptTemperature},
}

// Temperature handles "temperatura 36.5", "temp 36,6" and "T 36.4"; comma
// and dot decimal separators are both accepted.
func Temperature(text string) *float64 {
	groups, isOk := temperatureCascade.FirstMatch(text)
	if !isOk {
		return nil
	}
	value, _ := strconv.ParseFloat(strings.Replace(groups[1], ",", ".", 1), 64)
	return &value
}

var spo2Cascade = Cascade{
	{Pattern: regexp.MustCompile(`(?i)\bSpO2\s*[:=]?\s*(\d{2,3})\s*%?`), Accept: acceptIntRange(spo2Min, spo2Max)},
	{Pattern: regexp.MustCompile(`(?i)\bSatO2\s*[:=]?\s*(\d{2,3})\s*%?`), Accept: acceptIntRange(spo2Min, spo2Max)},
	{Pattern: regexp.MustCompile(`(?i)\bsaturazione\s*[:=]?\s*(\d{2,3})\s*%?`), Accept: acceptIntRange(spo2Min, spo2Max)},
}

// SpO2 handles "SpO2 98", "SatO2 97%" and "saturazione 96". Subscript digit
// variants ("SpO₂") are folded to plain digits before matching.
func SpO2(text string) *int {
	groups, isOk := spo2Cascade.FirstMatch(utils.FoldDigits(text))
	if !isOk {
		return nil
	}
	value, _ := strconv.Atoi(groups[1])
	return &value
}
