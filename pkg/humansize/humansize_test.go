package humansize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcast/loopcast/pkg/humansize"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"below threshold", 900, "900 B"},
		{"exact boundary", 1023, "1023 B"},
		{"kilobytes", 2048, "2.0 KB"},
		{"megabytes", 1536 * 1024, "1.5 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.0 GB"},
		{"negative", -2048, "-2.0 KB"},
		{"negative bytes", -900, "-900 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, humansize.Bytes(tt.bytes))
		})
	}
}
