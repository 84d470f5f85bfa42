// Package artifacts persists and loads the fitted model bundle. The blobs
// written by training are the contract the inference side depends on: the
// vectorizer, the category ensemble, the ordered label list, the isolation
// forest, and optionally the priority classifier with its label encoder.
package artifacts

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grievassist/ml-service/internal/anomaly"
	"github.com/grievassist/ml-service/internal/feature"
	"github.com/grievassist/ml-service/internal/model"
)

// Artifact file names inside the models directory.
const (
	VectorizerFile      = "tfidf_vectorizer.gob"
	CategoryModelFile   = "category_model.gob"
	CategoryColumnsFile = "category_columns.gob"
	IsoForestFile       = "isoforest.gob"
	PriorityModelFile   = "priority_model.gob"
	PriorityEncoderFile = "priority_encoder.gob"
	MetadataFile        = "metadata.json"
)

// ErrMissingArtifact marks a required artifact that is absent. Startup
// treats this as fatal; only the priority artifacts may be missing.
var ErrMissingArtifact = errors.New("missing model artifact")

// Metadata describes a trained bundle.
type Metadata struct {
	CreatedAt   time.Time `json:"created_at"`
	NSamples    int       `json:"n_samples"`
	Categories  []string  `json:"categories"`
	HasPriority bool      `json:"has_priority"`
}

// Bundle is the process-wide, read-only model state. It is loaded once at
// startup and shared by every request; nothing mutates it afterwards.
type Bundle struct {
	Vectorizer      *feature.Vectorizer
	Categories      *model.Ensemble
	Labels          []string
	Forest          *anomaly.Forest
	Priority        *model.PriorityClassifier // nil when not trained
	PriorityEncoder *model.LabelEncoder       // nil when not trained
	Meta            Metadata
}

// HasPriority reports whether the optional priority model is available.
func (b *Bundle) HasPriority() bool {
	return b.Priority != nil && b.PriorityEncoder != nil
}

// Save writes every artifact of the bundle into dir, creating it if needed.
func Save(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	if err := writeGob(dir, VectorizerFile, b.Vectorizer); err != nil {
		return err
	}
	if err := writeGob(dir, CategoryModelFile, b.Categories); err != nil {
		return err
	}
	if err := writeGob(dir, CategoryColumnsFile, b.Labels); err != nil {
		return err
	}
	if err := writeGob(dir, IsoForestFile, b.Forest); err != nil {
		return err
	}

	if b.HasPriority() {
		if err := writeGob(dir, PriorityModelFile, b.Priority); err != nil {
			return err
		}
		if err := writeGob(dir, PriorityEncoderFile, b.PriorityEncoder); err != nil {
			return err
		}
	}

	meta, err := json.MarshalIndent(b.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}

// Load reads a bundle from dir. Missing required artifacts are fatal;
// missing priority artifacts leave the bundle in the degraded no-priority
// mode, which is a normal outcome.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{}

	if err := readGob(dir, VectorizerFile, &b.Vectorizer); err != nil {
		return nil, err
	}
	if err := readGob(dir, CategoryModelFile, &b.Categories); err != nil {
		return nil, err
	}
	if err := readGob(dir, CategoryColumnsFile, &b.Labels); err != nil {
		return nil, err
	}
	if err := readGob(dir, IsoForestFile, &b.Forest); err != nil {
		return nil, err
	}

	// Probability shape is resolved once per load, never per request.
	b.Categories.ResolveShape()

	if err := readGob(dir, PriorityModelFile, &b.Priority); err != nil {
		if !errors.Is(err, ErrMissingArtifact) {
			return nil, err
		}
		b.Priority = nil
	}
	if err := readGob(dir, PriorityEncoderFile, &b.PriorityEncoder); err != nil {
		if !errors.Is(err, ErrMissingArtifact) {
			return nil, err
		}
		b.PriorityEncoder = nil
	}
	// A model without its encoder (or vice versa) cannot decode classes;
	// treat the pair as absent.
	if !b.HasPriority() {
		b.Priority = nil
		b.PriorityEncoder = nil
	}

	meta, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	switch {
	case os.IsNotExist(err):
		// tolerated: reconstruct the essentials
		b.Meta = Metadata{Categories: b.Labels, HasPriority: b.HasPriority()}
	case err != nil:
		return nil, fmt.Errorf("read metadata: %w", err)
	default:
		if err := json.Unmarshal(meta, &b.Meta); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	return b, nil
}

func writeGob(dir, name string, value any) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create artifact %s: %w", name, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(value); err != nil {
		return fmt.Errorf("encode artifact %s: %w", name, err)
	}
	return nil
}

func readGob(dir, name string, out any) error {
	f, err := os.Open(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, name)
	}
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", name, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("decode artifact %s: %w", name, err)
	}
	return nil
}
