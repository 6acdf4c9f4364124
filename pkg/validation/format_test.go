package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{name: "Valid pretty format", format: "pretty", expectErr: false},
		{name: "Valid csv format", format: "csv", expectErr: false},
		{name: "Invalid format", format: "json", expectErr: true},
		{name: "Empty format", format: "", expectErr: true},
		{name: "Case sensitive - uppercase", format: "PRETTY", expectErr: true},
		{name: "Case sensitive - CSV uppercase", format: "CSV", expectErr: true},
		{name: "Leading/trailing spaces", format: " pretty ", expectErr: true},
		{name: "Similar but incorrect format", format: "prettyprint", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)

			if tt.expectErr {
				if err == nil {
					t.Errorf("ValidateOutputFormat(%s) expected error but got none", tt.format)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateOutputFormat(%s) unexpected error = %v", tt.format, err)
				}
			}
		})
	}
}

func TestValidateOutputFormatErrorMessage(t *testing.T) {
	err := ValidateOutputFormat("xml")
	if err == nil {
		t.Fatal("Expected error for format 'xml'")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Errorf("Error message should name the rejected format: %s", err.Error())
	}
}
