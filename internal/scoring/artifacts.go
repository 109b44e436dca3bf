package scoring

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/asafschers/goscore"
)

const (
	ManifestFile  = "manifest.json"
	ModelFile     = "model.pmml"
	EncoderFile   = "crop_encoder.json"
	FormatVersion = 1
)

// Metrics are the held-out evaluation figures recorded by the trainer.
type Metrics struct {
	R2        float64 `json:"r2"`
	MSE       float64 `json:"mse"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
}

// Manifest versions the model and the encoder as one unit.
type Manifest struct {
	FormatVersion int       `json:"format_version"`
	ModelFile     string    `json:"model_file"`
	ModelSHA256   string    `json:"model_sha256"`
	EncoderFile   string    `json:"encoder_file"`
	EncoderSHA256 string    `json:"encoder_sha256"`
	Features      []string  `json:"features"`
	Target        string    `json:"target"`
	Classes       []string  `json:"classes"`
	Trees         int       `json:"trees"`
	TrainedAt     time.Time `json:"trained_at"`
	Metrics       Metrics   `json:"metrics"`
}

// Artifacts is everything loaded from the artifact directory.
type Artifacts struct {
	Manifest Manifest
	Encoder  *CropEncoder
	Model    *Model
	Forest   *PMMLForest
}

type pmmlHeader struct {
	XMLName xml.Name `xml:"PMML"`
	Fields  []struct {
		Name string `xml:"name,attr"`
	} `xml:"DataDictionary>DataField"`
}

// SaveArtifacts writes model, encoder and manifest; the manifest is written last
// so a partially written directory never loads.
func SaveArtifacts(dir string, pmml []byte, enc *CropEncoder, m Manifest) (Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return m, err
	}
	encBytes, err := json.MarshalIndent(enc, "", "  ")
	if err != nil {
		return m, fmt.Errorf("marshal encoder: %w", err)
	}
	m.FormatVersion = FormatVersion
	m.ModelFile = firstNonEmpty(m.ModelFile, ModelFile)
	m.EncoderFile = firstNonEmpty(m.EncoderFile, EncoderFile)
	m.ModelSHA256 = Digest(pmml)
	m.EncoderSHA256 = Digest(encBytes)
	m.Features = append([]string(nil), FeatureNames...)
	m.Target = TargetName
	m.Classes = enc.Classes()

	if err := os.WriteFile(filepath.Join(dir, m.ModelFile), pmml, 0o644); err != nil {
		return m, fmt.Errorf("write model: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.EncoderFile), encBytes, 0o644); err != nil {
		return m, fmt.Errorf("write encoder: %w", err)
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return m, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), mb, 0o644); err != nil {
		return m, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

// LoadArtifacts reads and cross-checks the artifact directory. Any problem is
// returned as *ArtifactLoadError.
func LoadArtifacts(dir string) (*Artifacts, error) {
	manPath := filepath.Join(dir, ManifestFile)
	raw, err := os.ReadFile(manPath)
	if err != nil {
		return nil, &ArtifactLoadError{Path: manPath, Cause: err}
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &ArtifactLoadError{Path: manPath, Cause: err}
	}
	if m.FormatVersion != FormatVersion {
		return nil, &ArtifactLoadError{Path: manPath, Cause: fmt.Errorf("format version %d, want %d", m.FormatVersion, FormatVersion)}
	}
	if !equalStrings(m.Features, FeatureNames) {
		return nil, &ArtifactLoadError{Path: manPath, Cause: fmt.Errorf("feature order %v does not match %v", m.Features, FeatureNames)}
	}

	encPath := filepath.Join(dir, firstNonEmpty(m.EncoderFile, EncoderFile))
	encBytes, err := os.ReadFile(encPath)
	if err != nil {
		return nil, &ArtifactLoadError{Path: encPath, Cause: err}
	}
	if d := Digest(encBytes); d != m.EncoderSHA256 {
		return nil, &ArtifactLoadError{Path: encPath, Cause: fmt.Errorf("encoder digest %s does not match manifest %s: retrain the model", d, m.EncoderSHA256)}
	}
	enc, err := UnmarshalCropEncoder(encBytes)
	if err != nil {
		return nil, &ArtifactLoadError{Path: encPath, Cause: err}
	}
	if !equalStrings(enc.Classes(), m.Classes) {
		return nil, &ArtifactLoadError{Path: encPath, Cause: errors.New("encoder classes differ from the classes the model was trained with")}
	}

	modelPath := filepath.Join(dir, firstNonEmpty(m.ModelFile, ModelFile))
	pmml, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, &ArtifactLoadError{Path: modelPath, Cause: err}
	}
	if d := Digest(pmml); d != m.ModelSHA256 {
		return nil, &ArtifactLoadError{Path: modelPath, Cause: fmt.Errorf("model digest %s does not match manifest", d)}
	}
	forest, err := ParsePMML(pmml)
	if err != nil {
		return nil, &ArtifactLoadError{Path: modelPath, Cause: err}
	}

	return &Artifacts{
		Manifest: m,
		Encoder:  enc,
		Model:    NewModel(forest),
		Forest:   forest,
	}, nil
}

// ParsePMML checks the data dictionary against FeatureNames and loads the forest.
func ParsePMML(doc []byte) (*PMMLForest, error) {
	var hdr pmmlHeader
	if err := xml.Unmarshal(doc, &hdr); err != nil {
		return nil, fmt.Errorf("pmml: %w", err)
	}
	declared := make(map[string]bool, len(hdr.Fields))
	for _, f := range hdr.Fields {
		declared[f.Name] = true
	}
	for _, name := range FeatureNames {
		if !declared[name] {
			return nil, fmt.Errorf("pmml: data dictionary lacks field %s", name)
		}
	}
	var rf goscore.RandomForest
	if err := xml.NewDecoder(bytes.NewReader(doc)).Decode(&rf); err != nil {
		return nil, fmt.Errorf("pmml: %w", err)
	}
	return NewPMMLForest(rf)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
