package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	stderrors "github.com/talentlake/talentrank/internal/common/errors"
)

// ModelOutput is the raw inference result before calibration.
type ModelOutput struct {
	Logits          []float64 // over the role vocabulary
	TenureMinMonths float64
	TenureMaxMonths float64
	Hireability     float64 // probability in [0,1]
}

// Model is the sequence model consumed by the predictor. Implementations
// must be safe for concurrent use; the loaded model is a process-lifetime
// read-only singleton.
type Model interface {
	Infer(seq EncodedSequence) (ModelOutput, error)
	Version() string
}

// artifact is the on-disk model bundle: vocabulary, role labels, weights,
// and the offline-fitted calibration table.
type artifact struct {
	ModelVersion       string         `json:"modelVersion"`
	Vocabulary         map[string]int `json:"vocabulary"`
	Roles              []string       `json:"roles"`
	EmbeddingDim       int            `json:"embeddingDim"`
	Embeddings         [][]float64    `json:"embeddings"`
	RoleWeights        [][]float64    `json:"roleWeights"`
	RoleBias           []float64      `json:"roleBias"`
	TenureWeights      [][]float64    `json:"tenureWeights"` // 2 x dim: min, max
	TenureBias         []float64      `json:"tenureBias"`
	HireabilityWeights []float64      `json:"hireabilityWeights"`
	HireabilityBias    float64        `json:"hireabilityBias"`
	Calibration        struct {
		Breakpoints []float64 `json:"breakpoints"`
		Values      []float64 `json:"values"`
	} `json:"calibration"`
}

// linearModel is the production model: mean-pooled title embeddings
// feeding linear heads for role logits, tenure regression, and
// hireability.
type linearModel struct {
	version            string
	embeddings         [][]float64
	embeddingDim       int
	roleWeights        [][]float64
	roleBias           []float64
	tenureWeights      [][]float64
	tenureBias         []float64
	hireabilityWeights []float64
	hireabilityBias    float64
}

// LoadedArtifacts bundles everything built from one model file.
type LoadedArtifacts struct {
	Model       Model
	Encoder     *Encoder
	Roles       []string
	Calibration *Calibrator
}

// LoadArtifacts reads and validates the model bundle. Any shape error is
// fatal for this predictor instance: it must report not-ready rather than
// serve guesses.
func LoadArtifacts(path string) (*LoadedArtifacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stderrors.NewModelLoadFailedError(path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, stderrors.NewModelLoadFailedError(path, err)
	}

	if err := validateArtifact(&art); err != nil {
		return nil, stderrors.NewModelLoadFailedError(path, err)
	}

	calibrator, err := NewCalibrator(art.Calibration.Breakpoints, art.Calibration.Values)
	if err != nil {
		return nil, stderrors.NewModelLoadFailedError(path, err)
	}

	return &LoadedArtifacts{
		Model: &linearModel{
			version:            art.ModelVersion,
			embeddings:         art.Embeddings,
			embeddingDim:       art.EmbeddingDim,
			roleWeights:        art.RoleWeights,
			roleBias:           art.RoleBias,
			tenureWeights:      art.TenureWeights,
			tenureBias:         art.TenureBias,
			hireabilityWeights: art.HireabilityWeights,
			hireabilityBias:    art.HireabilityBias,
		},
		Encoder:     NewEncoder(art.Vocabulary),
		Roles:       art.Roles,
		Calibration: calibrator,
	}, nil
}

func validateArtifact(art *artifact) error {
	if len(art.Roles) == 0 {
		return fmt.Errorf("artifact has no role labels")
	}
	if art.EmbeddingDim <= 0 {
		return fmt.Errorf("artifact embeddingDim must be positive, got %d", art.EmbeddingDim)
	}
	if len(art.Embeddings) <= len(art.Vocabulary) {
		return fmt.Errorf("embedding table smaller than vocabulary: %d rows for %d entries",
			len(art.Embeddings), len(art.Vocabulary))
	}
	for i, row := range art.Embeddings {
		if len(row) != art.EmbeddingDim {
			return fmt.Errorf("embedding row %d has dim %d, want %d", i, len(row), art.EmbeddingDim)
		}
	}
	if len(art.RoleWeights) != len(art.Roles) || len(art.RoleBias) != len(art.Roles) {
		return fmt.Errorf("role head shape mismatch: %d weights, %d biases for %d roles",
			len(art.RoleWeights), len(art.RoleBias), len(art.Roles))
	}
	for i, row := range art.RoleWeights {
		if len(row) != art.EmbeddingDim {
			return fmt.Errorf("role weight row %d has dim %d, want %d", i, len(row), art.EmbeddingDim)
		}
	}
	if len(art.TenureWeights) != 2 || len(art.TenureBias) != 2 {
		return fmt.Errorf("tenure head must have exactly two outputs")
	}
	for i, row := range art.TenureWeights {
		if len(row) != art.EmbeddingDim {
			return fmt.Errorf("tenure weight row %d has dim %d, want %d", i, len(row), art.EmbeddingDim)
		}
	}
	if len(art.HireabilityWeights) != art.EmbeddingDim {
		return fmt.Errorf("hireability head has dim %d, want %d",
			len(art.HireabilityWeights), art.EmbeddingDim)
	}
	return nil
}

func (m *linearModel) Version() string { return m.version }

func (m *linearModel) Infer(seq EncodedSequence) (ModelOutput, error) {
	if seq.Length == 0 {
		return ModelOutput{}, fmt.Errorf("empty sequence")
	}

	features := m.meanPool(seq)

	logits := make([]float64, len(m.roleWeights))
	for i, w := range m.roleWeights {
		logits[i] = dot(w, features) + m.roleBias[i]
	}

	tenureMin := dot(m.tenureWeights[0], features) + m.tenureBias[0]
	tenureMax := dot(m.tenureWeights[1], features) + m.tenureBias[1]
	hireability := sigmoid(dot(m.hireabilityWeights, features) + m.hireabilityBias)

	return ModelOutput{
		Logits:          logits,
		TenureMinMonths: tenureMin,
		TenureMaxMonths: tenureMax,
		Hireability:     hireability,
	}, nil
}

// meanPool averages the embeddings of the true-length prefix.
func (m *linearModel) meanPool(seq EncodedSequence) []float64 {
	features := make([]float64, m.embeddingDim)
	for i := 0; i < seq.Length; i++ {
		idx := seq.Indexes[i]
		if idx < 0 || idx >= len(m.embeddings) {
			idx = PaddingIndex
		}
		row := m.embeddings[idx]
		for d := 0; d < m.embeddingDim; d++ {
			features[d] += row[d]
		}
	}
	inv := 1.0 / float64(seq.Length)
	for d := range features {
		features[d] *= inv
	}
	return features
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
