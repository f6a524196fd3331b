package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value", Page{}, Page{Number: 1, Size: 10}},
		{"negative number", Page{Number: -3, Size: 20}, Page{Number: 1, Size: 20}},
		{"oversized", Page{Number: 2, Size: 5000}, Page{Number: 2, Size: 100}},
		{"in bounds", Page{Number: 4, Size: 25}, Page{Number: 4, Size: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 10}.Offset())
	assert.Equal(t, 40, Page{Number: 5, Size: 10}.Offset())
}
