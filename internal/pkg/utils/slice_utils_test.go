package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchStrings(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		batchSize int
		want      [][]string
	}{
		{
			name:      "even split",
			items:     []string{"a", "b", "c", "d"},
			batchSize: 2,
			want:      [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:      "remainder batch",
			items:     []string{"a", "b", "c"},
			batchSize: 2,
			want:      [][]string{{"a", "b"}, {"c"}},
		},
		{
			name:      "batch larger than input",
			items:     []string{"a"},
			batchSize: 10,
			want:      [][]string{{"a"}},
		},
		{
			name:      "invalid batch size falls back to single batch",
			items:     []string{"a", "b"},
			batchSize: 0,
			want:      [][]string{{"a", "b"}},
		},
		{
			name:      "empty input",
			items:     nil,
			batchSize: 3,
			want:      [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BatchStrings(tt.items, tt.batchSize))
		})
	}
}
