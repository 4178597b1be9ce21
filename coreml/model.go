// Package coreml reads and writes the subset of the CoreML model format (.mlmodel)
// used to ship hashtron detectors: a model description with image input and
// multiarray outputs, metadata, and a custom model body carrying the weights.
package coreml

// SpecificationVersion is the CoreML specification version written by this package.
const SpecificationVersion = 4

// ColorSpace of an image feature.
type ColorSpace int32

const (
	ColorSpaceInvalid   ColorSpace = 0
	ColorSpaceGrayscale ColorSpace = 10
	ColorSpaceRGB       ColorSpace = 20
	ColorSpaceBGR       ColorSpace = 30
)

// ArrayDataType of a multiarray feature.
type ArrayDataType int32

const (
	ArrayDataTypeInvalid ArrayDataType = 0
	ArrayDataTypeFloat32 ArrayDataType = 65568
	ArrayDataTypeDouble  ArrayDataType = 65600
	ArrayDataTypeInt32   ArrayDataType = 131104
)

// ImageFeatureType describes an image input.
type ImageFeatureType struct {
	Width      int64
	Height     int64
	ColorSpace ColorSpace
}

// ArrayFeatureType describes a multiarray.
type ArrayFeatureType struct {
	Shape    []int64
	DataType ArrayDataType
}

// FeatureType holds exactly one of its fields.
type FeatureType struct {
	Image      *ImageFeatureType
	MultiArray *ArrayFeatureType
}

// FeatureDescription names a model input or output.
type FeatureDescription struct {
	Name             string
	ShortDescription string
	Type             FeatureType
}

// Metadata of a model.
type Metadata struct {
	ShortDescription string
	VersionString    string
	Author           string
	License          string
	UserDefined      map[string]string
}

// ModelDescription lists the interface of a model.
type ModelDescription struct {
	Inputs               []FeatureDescription
	Outputs              []FeatureDescription
	PredictedFeatureName string
	Metadata             Metadata
}

// ParamKind says which value of a ParamValue is set.
type ParamKind byte

const (
	ParamString ParamKind = iota + 1
	ParamInt
	ParamBytes
)

// ParamValue is a custom model parameter.
type ParamValue struct {
	Kind   ParamKind
	String string
	Int    int64
	Bytes  []byte
}

// StringParam makes a string parameter.
func StringParam(s string) ParamValue { return ParamValue{Kind: ParamString, String: s} }

// IntParam makes an integer parameter.
func IntParam(i int64) ParamValue { return ParamValue{Kind: ParamInt, Int: i} }

// BytesParam makes a bytes parameter.
func BytesParam(b []byte) ParamValue { return ParamValue{Kind: ParamBytes, Bytes: b} }

// CustomModel is a model evaluated by a class the host application provides.
type CustomModel struct {
	ClassName   string
	Parameters  map[string]ParamValue
	Description string
}

// Model is a CoreML model whose body is a custom model.
type Model struct {
	SpecificationVersion int32
	Description          ModelDescription
	Custom               CustomModel
}
