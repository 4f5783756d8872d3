package checkout

import (
	"regexp"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
)

const segmentSep = " - "

var gradeToken = regexp.MustCompile(`(?i)\b(grade\s*\d{1,2}|grado\s*\d{1,2}|\d{1,2}(?:st|nd|rd|th)|k-\d|k)\b`)

// ExtractSchoolGrade finds the school and grade of an order from its items. Items are tried in cart
// order and the first item that yields anything wins. Per item: explicit School and Grade, then
// CustomerInfo, then a parse of the display name. The name parse is lossy; lines added from the
// catalog always carry explicit values.
func ExtractSchoolGrade(items []cart.LineItem) (school, grade string) {
	for _, li := range items {
		if s, g, ok := fromItem(li); ok {
			return s, g
		}
	}
	return "", ""
}

func fromItem(li cart.LineItem) (string, string, bool) {
	if li.School != "" && li.Grade != "" {
		return li.School, li.Grade, true
	}
	if ci := li.CustomerInfo; ci != nil && (ci.School != "" || ci.Grade != "") {
		return ci.School, ci.Grade, true
	}
	school, grade := parseName(li.Name)
	return school, grade, school != "" || grade != ""
}

// parseName reads names shaped like "Pack - 3rd - Lincoln Elementary".
func parseName(name string) (school, grade string) {
	grade = strings.TrimSpace(gradeToken.FindString(name))
	if !strings.Contains(name, segmentSep) {
		return "", grade
	}
	for _, seg := range strings.Split(name, segmentSep) {
		seg = strings.TrimSpace(seg)
		if seg == "" || strings.EqualFold(seg, "pack") || gradeToken.MatchString(seg) {
			continue
		}
		return seg, grade
	}
	return "", grade
}
