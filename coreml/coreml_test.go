package coreml

import "bytes"
import "path/filepath"
import "testing"

import "github.com/google/go-cmp/cmp"
import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"
import "google.golang.org/protobuf/encoding/protowire"

func testModel() *Model {
	return &Model{
		SpecificationVersion: SpecificationVersion,
		Description: ModelDescription{
			Inputs: []FeatureDescription{{
				Name:             "image",
				ShortDescription: "input image",
				Type:             FeatureType{Image: &ImageFeatureType{Width: 32, Height: 32, ColorSpace: ColorSpaceGrayscale}},
			}},
			Outputs: []FeatureDescription{
				{Name: "confidence", Type: FeatureType{MultiArray: &ArrayFeatureType{Shape: []int64{16, 3}, DataType: ArrayDataTypeDouble}}},
				{Name: "coordinates", Type: FeatureType{MultiArray: &ArrayFeatureType{Shape: []int64{16, 4}, DataType: ArrayDataTypeDouble}}},
			},
			PredictedFeatureName: "confidence",
			Metadata: Metadata{
				ShortDescription: "detector",
				VersionString:    "1",
				Author:           "someone",
				UserDefined:      map[string]string{"labels": "cat,dog", "run": "x"},
			},
		},
		Custom: CustomModel{
			ClassName: "HashtronGridDetector",
			Parameters: map[string]ParamValue{
				"detector": BytesParam([]byte(`{"grid":4}`)),
				"name":     StringParam("grid"),
				"cells":    IntParam(16),
				"negative": IntParam(-3),
			},
			Description: "hashtron grid detector",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	m := testModel()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))

	got, err := Read(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mlmodel")
	m := testModel()
	require.NoError(t, WriteFile(path, m))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Custom, got.Custom)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.mlmodel"))
	assert.Error(t, err)
}

func TestDeterministicAndVersionFirst(t *testing.T) {
	a := Marshal(testModel())
	b := Marshal(testModel())
	assert.Equal(t, a, b)
	assert.Equal(t, []byte{0x08, SpecificationVersion}, a[:2])
}

func TestSkipsUnknownFields(t *testing.T) {
	b := Marshal(testModel())
	b = protowire.AppendTag(b, 9, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)
	b = protowire.AppendTag(b, 3000, protowire.BytesType)
	b = protowire.AppendString(b, "neural network")

	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, "HashtronGridDetector", got.Custom.ClassName)
}

func TestMalformed(t *testing.T) {
	b := Marshal(testModel())
	_, err := Unmarshal(b[:len(b)-3])
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Unmarshal([]byte{0xff})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestUnpackedShape(t *testing.T) {
	var arr []byte
	arr = protowire.AppendTag(arr, fieldArrayShape, protowire.VarintType)
	arr = protowire.AppendVarint(arr, 5)
	arr = protowire.AppendTag(arr, fieldArrayShape, protowire.VarintType)
	arr = protowire.AppendVarint(arr, 6)

	var got ArrayFeatureType
	require.NoError(t, unmarshalArray(arr, &got))
	assert.Equal(t, []int64{5, 6}, got.Shape)
}
