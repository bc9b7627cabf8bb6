package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"50G", 50 << 30},
		{"50g", 50 << 30},
		{"512M", 512 << 20},
		{"1024", 1024 << 20},
		{"2T", 2 << 40},
		{"1048576b", 1 << 20},
		{"10GB", 10_000_000_000},
		{"4GiB", 4 << 30},
		{" 1G ", 1 << 30},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSizeRejects(t *testing.T) {
	for _, in := range []string{"", "lots", "0", "0G", "-5G"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			assert.Error(t, err)
		})
	}
}
