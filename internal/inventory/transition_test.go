package inventory

import (
	"testing"

	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestTransitionCheckout(t *testing.T) {
	tests := []struct {
		name     string
		prev     *string
		next     *string
		expected []CheckoutEvent
	}{
		{
			name:     "available stays available",
			expected: nil,
		},
		{
			name:     "check out",
			next:     lo.ToPtr("u1"),
			expected: []CheckoutEvent{{UserID: "u1", Operation: models.OperationCheckOut}},
		},
		{
			name:     "check in",
			prev:     lo.ToPtr("u1"),
			expected: []CheckoutEvent{{UserID: "u1", Operation: models.OperationCheckIn}},
		},
		{
			name:     "same user",
			prev:     lo.ToPtr("u1"),
			next:     lo.ToPtr("u1"),
			expected: nil,
		},
		{
			name: "reassignment checks in before checking out",
			prev: lo.ToPtr("A"),
			next: lo.ToPtr("B"),
			expected: []CheckoutEvent{
				{UserID: "A", Operation: models.OperationCheckIn},
				{UserID: "B", Operation: models.OperationCheckOut},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TransitionCheckout(tt.prev, tt.next))
		})
	}
}

func TestSortRadios(t *testing.T) {
	radios := []models.Radio{
		{ID: "TR10"}, {ID: "AB1"}, {ID: "TR2"}, {ID: "12"}, {ID: "3"}, {ID: "TR01"},
	}
	sortRadios(radios)
	assert.Equal(t, []string{"3", "12", "AB1", "TR01", "TR2", "TR10"}, lo.Map(radios, func(r models.Radio, _ int) string {
		return r.ID
	}))
}

func TestSplitRadioID(t *testing.T) {
	tests := []struct {
		id    string
		model string
		index int
	}{
		{"TR01", "TR", 1},
		{"42", "", 42},
		{"spare", "", 0},
		{"A-1", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			model, index := splitRadioID(tt.id)
			assert.Equal(t, tt.model, model)
			assert.Equal(t, tt.index, index)
		})
	}
}
