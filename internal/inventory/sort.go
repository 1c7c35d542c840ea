package inventory

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"

	"github.com/rhymednick/inw-radio-log/internal/models"
)

// radio IDs are a model prefix followed by an index, e.g. "TR01" or "12"
var radioIDPattern = regexp.MustCompile(`^([a-zA-Z]*)(\d+)$`)

func splitRadioID(id string) (string, int) {
	m := radioIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", 0
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return m[1], 0
	}
	return m[1], idx
}

// sortRadios orders radios by model prefix, bare numbers first, then by
// numeric index, so TR2 sorts before TR10.
func sortRadios(radios []models.Radio) {
	slices.SortStableFunc(radios, func(a, b models.Radio) int {
		modelA, idxA := splitRadioID(a.ID)
		modelB, idxB := splitRadioID(b.ID)
		if c := cmp.Compare(modelA, modelB); c != 0 {
			return c
		}
		if c := cmp.Compare(idxA, idxB); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
