package detector

import "bytes"
import "encoding/json"
import "fmt"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/detector/coreml"

// ClassName is the custom model class expected to evaluate exported detectors.
const ClassName = "HashtronGridDetector"

// header is the json detector description stored next to the weights.
type header struct {
	GridSize    int          `json:"grid_size"`
	CellSize    int          `json:"cell_size"`
	Labels      []string     `json:"labels"`
	Anchors     [][2]float64 `json:"anchors"`
	Calibration [][]float64  `json:"calibration"`
	RunID       string       `json:"run_id"`
}

const (
	paramDetector = "detector"
	paramWeights  = "weights"
)

// Model describes the detector as a CoreML model.
func (d *Detector) Model() (*coreml.Model, error) {
	head, err := json.Marshal(header{
		GridSize:    d.grid,
		CellSize:    d.size,
		Labels:      d.labels,
		Anchors:     d.anchors,
		Calibration: d.calibration,
		RunID:       d.runID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "detector header")
	}
	var weights bytes.Buffer
	if err := d.net.WriteCompressedWeights(&weights); err != nil {
		return nil, errors.Wrap(err, "detector weights")
	}

	side := int64(d.side())
	cells := int64(d.grid * d.grid)
	return &coreml.Model{
		SpecificationVersion: coreml.SpecificationVersion,
		Description: coreml.ModelDescription{
			Inputs: []coreml.FeatureDescription{{
				Name:             "image",
				ShortDescription: "Input image",
				Type: coreml.FeatureType{Image: &coreml.ImageFeatureType{
					Width:      side,
					Height:     side,
					ColorSpace: coreml.ColorSpaceGrayscale,
				}},
			}},
			Outputs: []coreml.FeatureDescription{{
				Name:             "confidence",
				ShortDescription: "Confidence of each label for every grid cell",
				Type: coreml.FeatureType{MultiArray: &coreml.ArrayFeatureType{
					Shape:    []int64{cells, int64(len(d.labels))},
					DataType: coreml.ArrayDataTypeDouble,
				}},
			}, {
				Name:             "coordinates",
				ShortDescription: "Normalized center x, y, width and height of the box of every grid cell",
				Type: coreml.FeatureType{MultiArray: &coreml.ArrayFeatureType{
					Shape:    []int64{cells, 4},
					DataType: coreml.ArrayDataTypeDouble,
				}},
			}},
			PredictedFeatureName: "confidence",
			Metadata: coreml.Metadata{
				ShortDescription: fmt.Sprintf("Hashtron object detector, %dx%d grid", d.grid, d.grid),
				VersionString:    "1",
				Author:           "github.com/neurlang/detector",
				UserDefined: map[string]string{
					"labels":    strings.Join(d.labels, ","),
					"run_id":    d.runID,
					"grid_size": fmt.Sprint(d.grid),
					"cell_size": fmt.Sprint(d.size),
				},
			},
		},
		Custom: coreml.CustomModel{
			ClassName: ClassName,
			Parameters: map[string]coreml.ParamValue{
				paramDetector: coreml.BytesParam(head),
				paramWeights:  coreml.BytesParam(weights.Bytes()),
			},
			Description: "Grid cell classifier made of hashtron layers",
		},
	}, nil
}

// ExportCoreML writes the detector to path as a .mlmodel file.
func (d *Detector) ExportCoreML(path string) error {
	m, err := d.Model()
	if err != nil {
		return err
	}
	return coreml.WriteFile(path, m)
}

// FromModel restores a detector from its CoreML description.
func FromModel(m *coreml.Model) (*Detector, error) {
	if m.Custom.ClassName != ClassName {
		return nil, errors.Errorf("model class %q is not a %s", m.Custom.ClassName, ClassName)
	}
	headParam, ok := m.Custom.Parameters[paramDetector]
	if !ok || headParam.Kind != coreml.ParamBytes {
		return nil, errors.Errorf("model has no %s parameter", paramDetector)
	}
	weightsParam, ok := m.Custom.Parameters[paramWeights]
	if !ok || weightsParam.Kind != coreml.ParamBytes {
		return nil, errors.Errorf("model has no %s parameter", paramWeights)
	}

	var head header
	if err := json.Unmarshal(headParam.Bytes, &head); err != nil {
		return nil, errors.Wrap(err, "detector header")
	}
	opts := Options{GridSize: head.GridSize, CellSize: head.CellSize}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(head.Labels) == 0 {
		return nil, errors.New("detector header has no labels")
	}
	if len(head.Anchors) != len(head.Labels) {
		return nil, errors.Errorf("%d anchors for %d labels", len(head.Anchors), len(head.Labels))
	}
	k := len(head.Labels) + 1
	if len(head.Calibration) != k {
		return nil, errors.Errorf("calibration has %d rows, want %d", len(head.Calibration), k)
	}
	for i, row := range head.Calibration {
		if len(row) != k {
			return nil, errors.Errorf("calibration row %d has %d columns, want %d", i, len(row), k)
		}
	}

	d, err := newDetector(head.GridSize, head.CellSize, head.Labels)
	if err != nil {
		return nil, err
	}
	if err := d.net.ReadCompressedWeights(bytes.NewReader(weightsParam.Bytes)); err != nil {
		return nil, errors.Wrap(err, "detector weights")
	}
	d.anchors = head.Anchors
	d.calibration = head.Calibration
	d.runID = head.RunID
	return d, nil
}

// Load reads a detector exported by ExportCoreML.
func Load(path string) (*Detector, error) {
	m, err := coreml.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := FromModel(m)
	return d, errors.Wrapf(err, "load %s", path)
}
