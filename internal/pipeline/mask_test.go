package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPAN(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"4111111111111111", "**** **** **** 1111"},
		{"5500005555555559", "**** **** **** 5559"},
		{"1234", "**** **** **** 1234"},
		{"123", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPAN(tt.raw), "raw %q", tt.raw)
	}
}
