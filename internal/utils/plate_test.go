package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ka 01 ab 1234", "KA01AB1234"},
		{"KA-01-AB-1234", "KA01AB1234"},
		{"  mh12de1433 ", "MH12DE1433"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePlate(tt.in))
	}
}
