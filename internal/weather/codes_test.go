package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeCode(t *testing.T) {
	tests := []struct {
		name string
		code int
		want string
	}{
		{"clear sky", 0, "Clear sky"},
		{"overcast", 3, "Overcast"},
		{"light snow", 71, "Snow fall: Slight"},
		{"thunderstorm with heavy hail", 99, "Thunderstorm with heavy hail"},
		{"unmapped code", 42, "Unknown"},
		{"negative code", -1, "Unknown"},
		{"out of range", 100, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeCode(tt.code))
		})
	}
}
