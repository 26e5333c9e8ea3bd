package catalog

import "strings"

// GradeType selects the bouldering scale grades are shown in.
type GradeType string

const (
	GradeFont GradeType = "font"
	GradeV    GradeType = "v"
)

// Valid reports whether t is a known grade scale.
func (t GradeType) Valid() bool {
	return t == GradeFont || t == GradeV
}

var fontToV = map[string]string{
	"4":   "V0",
	"5":   "V1",
	"5+":  "V2",
	"6a":  "V3",
	"6a+": "V4",
	"6b":  "V4",
	"6b+": "V5",
	"6c":  "V5",
	"6c+": "V6",
	"7a":  "V6",
	"7a+": "V7",
	"7b":  "V8",
	"7b+": "V9",
	"7c":  "V9",
	"7c+": "V10",
	"8a":  "V11",
	"8a+": "V12",
	"8b+": "V13",
	"9a":  "V15",
	"?":   "?",
}

// Where a V grade spans two Font grades the lower one is used.
var vToFont = map[string]string{
	"V0":  "4",
	"V1":  "5",
	"V2":  "5+",
	"V3":  "6a",
	"V4":  "6a+",
	"V5":  "6b+",
	"V6":  "6c+",
	"V7":  "7a+",
	"V8":  "7b",
	"V9":  "7b+",
	"V10": "7c+",
	"V11": "8a",
	"V12": "8a+",
	"V13": "8b+",
	"V14": "8b+",
	"V15": "9a",
	"?":   "?",
}

// FontToV converts a Fontainebleau grade to the V scale. Unknown grades are
// returned unchanged.
func FontToV(font string) string {
	if v, ok := fontToV[strings.ToLower(strings.TrimSpace(font))]; ok {
		return v
	}
	return font
}

// VToFont converts a V grade to the Fontainebleau scale. Unknown grades are
// returned unchanged.
func VToFont(v string) string {
	if f, ok := vToFont[strings.ToUpper(strings.TrimSpace(v))]; ok {
		return f
	}
	return v
}

// DisplayGrade returns the spot's grade in the requested scale.
func DisplayGrade(s Spot, t GradeType) string {
	if t == GradeV {
		if s.VGrade != "" {
			return s.VGrade
		}
		return FontToV(s.Difficulty)
	}
	if s.FontGrade != "" {
		return s.FontGrade
	}
	return s.Difficulty
}
