package assets

import (
	"errors"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple name", input: "sheet", wantErr: nil},
		{name: "name with hyphen", input: "my-style", wantErr: nil},
		{name: "name with underscore", input: "my_style", wantErr: nil},
		{name: "mixed case", input: "Compact2", wantErr: nil},
		{name: "empty name", input: "", wantErr: ErrInvalidAssetName},
		{name: "forward slash", input: "path/to/style", wantErr: ErrInvalidAssetName},
		{name: "backslash", input: "path\\to\\style", wantErr: ErrInvalidAssetName},
		{name: "dot dot", input: "..", wantErr: ErrInvalidAssetName},
		{name: "extension", input: "sheet.css", wantErr: ErrInvalidAssetName},
		{name: "null byte", input: "sheet\x00", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAssetName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
