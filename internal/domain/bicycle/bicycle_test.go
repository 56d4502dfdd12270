package bicycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bicycle_rental/internal/domain/bicycle"
)

func Test_Status_Is(t *testing.T) {
	testCases := []struct {
		stored bicycle.Status
		want   bool
	}{
		{stored: "Rented", want: true},
		{stored: "rented", want: true},
		{stored: "RENTED", want: true},
		{stored: "Rented ", want: false},
		{stored: " rented", want: false},
		{stored: "Available", want: false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.stored), func(t *testing.T) {
			b := &bicycle.Bicycle{Status: tc.stored}
			assert.Equal(t, tc.want, tc.stored.Is(bicycle.StatusRented))
			assert.Equal(t, tc.want, b.IsRented())
		})
	}
}
