package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type sample struct {
	Name  string  `json:"name" validate:"required,max=5"`
	Pace  float64 `json:"pace" validate:"finite,gte=0"`
	Count int     `json:"count" validate:"gte=0"`
	Days  int     `json:"days_ahead" validate:"omitempty,min=1,max=365"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&sample{Name: "rice", Pace: 0.2, Days: 30}); err != nil {
		t.Fatalf("Struct() = %v, want nil", err)
	}
}

func TestStruct_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		in        sample
		wantField string
		wantTag   string
	}{
		{"missing name", sample{}, "name", "required"},
		{"long name", sample{Name: "toilet paper"}, "name", "max"},
		{"nan pace", sample{Name: "a", Pace: math.NaN()}, "pace", "finite"},
		{"infinite pace", sample{Name: "a", Pace: math.Inf(1)}, "pace", "finite"},
		{"negative count", sample{Name: "a", Count: -1}, "count", "gte"},
		{"horizon too long", sample{Name: "a", Days: 400}, "days_ahead", "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in)
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() = %v, want *Error", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(verr.Fields), verr)
			}
			if verr.Fields[0].Field != tt.wantField || verr.Fields[0].Tag != tt.wantTag {
				t.Errorf("field error = %+v, want %s/%s", verr.Fields[0], tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := Struct(&sample{Count: -2})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "name is required") || !strings.Contains(msg, "count must be greater than or equal to 0") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestGet_Singleton(t *testing.T) {
	if Get() != Get() {
		t.Error("Get() should return the same instance")
	}
}
