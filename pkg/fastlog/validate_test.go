package fastlog

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInputValidate(t *testing.T) {
	long := strings.Repeat("a", MaxNotesLength+1)
	exact := strings.Repeat("é", MaxNotesLength)

	tests := []struct {
		name      string
		in        Input
		badFields []string
	}{
		{"valid", Input{Date: "2024-01-15", FastType: "RELIGIOUS"}, nil},
		{"valid with notes at limit", Input{Date: "2024-01-15", FastType: "INTERMITTENT", Notes: &exact}, nil},
		{"missing date", Input{FastType: "RELIGIOUS"}, []string{"date"}},
		{"missing type", Input{Date: "2024-01-15"}, []string{"fastType"}},
		{"missing both", Input{}, []string{"date", "fastType"}},
		{"bad date", Input{Date: "15/01/2024", FastType: "RELIGIOUS"}, []string{"date"}},
		{"impossible date", Input{Date: "2024-02-30", FastType: "RELIGIOUS"}, []string{"date"}},
		{"unknown type", Input{Date: "2024-01-15", FastType: "WATER"}, []string{"fastType"}},
		{"lowercase type", Input{Date: "2024-01-15", FastType: "religious"}, []string{"fastType"}},
		{"notes too long", Input{Date: "2024-01-15", FastType: "RELIGIOUS", Notes: &long}, []string{"notes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.in.Validate()
			if len(tt.badFields) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				if f.ID != nil {
					t.Errorf("ID = %d, want nil", *f.ID)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.badFields) {
				t.Errorf("Fields = %v, want keys %v", verr.Fields, tt.badFields)
			}
			for _, name := range tt.badFields {
				if _, ok := verr.Fields[name]; !ok {
					t.Errorf("Fields missing %q: %v", name, verr.Fields)
				}
			}
		})
	}
}

func TestInputValidateIgnoresID(t *testing.T) {
	var in Input
	if err := json.Unmarshal([]byte(`{"id":42,"date":"2024-01-15","fastType":"RELIGIOUS","completed":true,"notes":"x"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	f, err := in.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.ID != nil {
		t.Errorf("ID = %d, want nil", *f.ID)
	}
	if !f.Date.Equal(NewDate(2024, 1, 15)) || f.FastType != Religious || !f.Completed || *f.Notes != "x" {
		t.Errorf("Validate = %+v", f)
	}
}

func TestParseFastType(t *testing.T) {
	for _, s := range []string{"RELIGIOUS", "religious", " Religious "} {
		got, err := ParseFastType(s)
		if err != nil || got != Religious {
			t.Errorf("ParseFastType(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseFastType("keto"); err == nil {
		t.Error("ParseFastType(keto) succeeded")
	}
}

func TestValidationErrorMessageSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"fastType": "is required", "date": "is required"}}
	want := "invalid fast log: date: is required; fastType: is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
