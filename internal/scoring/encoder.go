package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CropEncoder maps crop names to the integer codes seen at training time.
// Codes are the index of the name in the sorted class list.
type CropEncoder struct {
	classes []string
	codes   map[string]int
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

// FitCropEncoder builds the encoder from the distinct crop values of a dataset.
func FitCropEncoder(values []string) (*CropEncoder, error) {
	seen := make(map[string]struct{}, 8)
	var classes []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewCropEncoder(classes)
}

// NewCropEncoder validates an already sorted, duplicate-free class list.
func NewCropEncoder(classes []string) (*CropEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("encoder has no classes")
	}
	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("empty class at position %d", i)
		}
		if i > 0 && classes[i-1] >= c {
			return nil, fmt.Errorf("classes not strictly sorted at %q", c)
		}
		codes[c] = i
	}
	cp := make([]string, len(classes))
	copy(cp, classes)
	return &CropEncoder{classes: cp, codes: codes}, nil
}

// Transform returns the code of a crop type or an UnknownCategoryError.
func (e *CropEncoder) Transform(crop string) (int, error) {
	code, ok := e.codes[crop]
	if !ok {
		return -1, &UnknownCategoryError{Value: crop, Known: e.Classes()}
	}
	return code, nil
}

// Inverse maps a code back to its crop name.
func (e *CropEncoder) Inverse(code int) (string, bool) {
	if code < 0 || code >= len(e.classes) {
		return "", false
	}
	return e.classes[code], true
}

// Classes returns a copy of the known crop types in code order.
func (e *CropEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// MarshalJSON writes the canonical artifact form.
func (e *CropEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(encoderFile{Classes: e.classes})
}

// UnmarshalCropEncoder parses the artifact written by MarshalJSON.
func UnmarshalCropEncoder(b []byte) (*CropEncoder, error) {
	var f encoderFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return NewCropEncoder(f.Classes)
}

// Digest identifies an encoder artifact; the manifest pins the model to it.
func Digest(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
