package scoring

import (
	"errors"
	"testing"
)

func TestFitCropEncoderSortsAndDedupes(t *testing.T) {
	enc, err := FitCropEncoder([]string{"Wheat", "Corn", "Rice", "Corn", "Soybean", "Wheat"})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := []string{"Corn", "Rice", "Soybean", "Wheat"}
	got := enc.Classes()
	if len(got) != len(want) {
		t.Fatalf("classes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("classes = %v, want %v", got, want)
		}
		code, err := enc.Transform(want[i])
		if err != nil || code != i {
			t.Fatalf("Transform(%q) = %d, %v; want %d", want[i], code, err, i)
		}
		name, ok := enc.Inverse(i)
		if !ok || name != want[i] {
			t.Fatalf("Inverse(%d) = %q, %v", i, name, ok)
		}
	}
}

func TestTransformUnknownCrop(t *testing.T) {
	enc, _ := NewCropEncoder([]string{"Corn", "Rice"})
	_, err := enc.Transform("Barley")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	var uce *UnknownCategoryError
	if !errors.As(err, &uce) || uce.Value != "Barley" || len(uce.Known) != 2 {
		t.Fatalf("unexpected error detail: %#v", err)
	}
	// case-sensitive like the fitted labels
	if _, err := enc.Transform("corn"); err == nil {
		t.Fatal("lowercase crop should be unknown")
	}
}

func TestNewCropEncoderRejectsBadClasses(t *testing.T) {
	cases := map[string][]string{
		"empty":    nil,
		"unsorted": {"Rice", "Corn"},
		"dup":      {"Corn", "Corn"},
		"blank":    {" ", "Corn"},
	}
	for name, classes := range cases {
		if _, err := NewCropEncoder(classes); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestEncoderJSONRoundTrip(t *testing.T) {
	enc, _ := NewCropEncoder([]string{"Corn", "Rice", "Wheat"})
	b, err := enc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"classes":["Corn","Rice","Wheat"]}` {
		t.Fatalf("unexpected artifact %s", b)
	}
	back, err := UnmarshalCropEncoder(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if code, _ := back.Transform("Wheat"); code != 2 {
		t.Fatalf("Wheat code = %d", code)
	}
	if _, err := UnmarshalCropEncoder([]byte(`{"classes":`)); err == nil {
		t.Fatal("expected error on truncated artifact")
	}
}
