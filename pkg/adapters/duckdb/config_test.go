package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name:  "empty map returns empty struct",
			input: map[string]any{},
			want:  &Params{},
		},
		{
			name: "csv options",
			input: map[string]any{
				"delimiter":    "\t",
				"null_strings": []any{"NA", ""},
			},
			want: &Params{
				Delimiter:   "\t",
				NullStrings: []string{"NA", ""},
			},
		},
		{
			name: "settings are weakly typed",
			input: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      4,
				},
				"extensions": []any{"icu"},
			},
			want: &Params{
				Extensions: []string{"icu"},
				Settings: map[string]string{
					"memory_limit": "4GB",
					"threads":      "4",
				},
			},
		},
		{
			name: "unknown key is rejected",
			input: map[string]any{
				"secrets": []any{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSVOptions(t *testing.T) {
	got := csvOptions("/data/drug's.csv", &Params{Delimiter: ";", NullStrings: []string{"NA", ""}})
	assert.Equal(t, `'/data/drug''s.csv', header=true, all_varchar=true, delim=';', nullstr=['NA', '']`, got)

	assert.Equal(t, `'/x.csv', header=true, all_varchar=true`, csvOptions("/x.csv", &Params{}))
}
