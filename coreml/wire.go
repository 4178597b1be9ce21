package coreml

import "bytes"
import "io"
import "os"
import "sort"

import "github.com/pkg/errors"
import "google.golang.org/protobuf/encoding/protowire"

// field numbers of the CoreML protobuf messages
const (
	fieldModelSpecificationVersion = 1
	fieldModelDescription          = 2
	fieldModelCustom               = 555

	fieldDescriptionInput     = 1
	fieldDescriptionOutput    = 10
	fieldDescriptionPredicted = 11
	fieldDescriptionMetadata  = 100

	fieldFeatureName        = 1
	fieldFeatureDescription = 2
	fieldFeatureType        = 3

	fieldTypeImage      = 4
	fieldTypeMultiArray = 5

	fieldImageWidth      = 1
	fieldImageHeight     = 2
	fieldImageColorSpace = 3

	fieldArrayShape    = 1
	fieldArrayDataType = 2

	fieldMetadataShortDescription = 1
	fieldMetadataVersion          = 2
	fieldMetadataAuthor           = 3
	fieldMetadataLicense          = 4
	fieldMetadataUserDefined      = 100

	fieldCustomClassName   = 10
	fieldCustomParameters  = 30
	fieldCustomDescription = 40

	fieldParamString = 20
	fieldParamInt    = 30
	fieldParamBytes  = 60

	fieldMapKey   = 1
	fieldMapValue = 2
)

// ErrMalformed is returned for input that isn't a well formed model.
var ErrMalformed = errors.New("malformed mlmodel")

// Marshal encodes m in protobuf wire format.
func Marshal(m *Model) []byte {
	var b []byte
	if m.SpecificationVersion != 0 {
		b = protowire.AppendTag(b, fieldModelSpecificationVersion, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.SpecificationVersion))
	}
	b = appendMessage(b, fieldModelDescription, marshalDescription(&m.Description))
	b = appendMessage(b, fieldModelCustom, marshalCustom(&m.Custom))
	return b
}

// Write encodes m to w.
func Write(w io.Writer, m *Model) error {
	_, err := w.Write(Marshal(m))
	return errors.Wrap(err, "write mlmodel")
}

// WriteFile encodes m to the file at path.
func WriteFile(path string, m *Model) error {
	return errors.Wrapf(os.WriteFile(path, Marshal(m), 0o644), "write %s", path)
}

// Read decodes a model from r.
func Read(r io.Reader) (*Model, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "read mlmodel")
	}
	return Unmarshal(buf.Bytes())
}

// ReadFile decodes the model at path.
func ReadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read mlmodel")
	}
	m, err := Unmarshal(data)
	return m, errors.Wrapf(err, "read %s", path)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func marshalDescription(d *ModelDescription) (b []byte) {
	for i := range d.Inputs {
		b = appendMessage(b, fieldDescriptionInput, marshalFeature(&d.Inputs[i]))
	}
	for i := range d.Outputs {
		b = appendMessage(b, fieldDescriptionOutput, marshalFeature(&d.Outputs[i]))
	}
	b = appendString(b, fieldDescriptionPredicted, d.PredictedFeatureName)
	b = appendMessage(b, fieldDescriptionMetadata, marshalMetadata(&d.Metadata))
	return
}

func marshalFeature(f *FeatureDescription) (b []byte) {
	b = appendString(b, fieldFeatureName, f.Name)
	b = appendString(b, fieldFeatureDescription, f.ShortDescription)
	var t []byte
	if f.Type.Image != nil {
		var img []byte
		img = appendVarint(img, fieldImageWidth, f.Type.Image.Width)
		img = appendVarint(img, fieldImageHeight, f.Type.Image.Height)
		img = appendVarint(img, fieldImageColorSpace, int64(f.Type.Image.ColorSpace))
		t = appendMessage(t, fieldTypeImage, img)
	}
	if f.Type.MultiArray != nil {
		var arr, shape []byte
		for _, v := range f.Type.MultiArray.Shape {
			shape = protowire.AppendVarint(shape, uint64(v))
		}
		if len(shape) > 0 {
			arr = appendMessage(arr, fieldArrayShape, shape)
		}
		arr = appendVarint(arr, fieldArrayDataType, int64(f.Type.MultiArray.DataType))
		t = appendMessage(t, fieldTypeMultiArray, arr)
	}
	return appendMessage(b, fieldFeatureType, t)
}

func sortedKeys[V any](m map[string]V) []string {
	var keys = make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func marshalMetadata(m *Metadata) (b []byte) {
	b = appendString(b, fieldMetadataShortDescription, m.ShortDescription)
	b = appendString(b, fieldMetadataVersion, m.VersionString)
	b = appendString(b, fieldMetadataAuthor, m.Author)
	b = appendString(b, fieldMetadataLicense, m.License)
	for _, k := range sortedKeys(m.UserDefined) {
		var entry []byte
		entry = protowire.AppendTag(entry, fieldMapKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, fieldMapValue, protowire.BytesType)
		entry = protowire.AppendString(entry, m.UserDefined[k])
		b = appendMessage(b, fieldMetadataUserDefined, entry)
	}
	return
}

func marshalCustom(c *CustomModel) (b []byte) {
	b = appendString(b, fieldCustomClassName, c.ClassName)
	for _, k := range sortedKeys(c.Parameters) {
		v := c.Parameters[k]
		var value []byte
		switch v.Kind {
		case ParamString:
			value = protowire.AppendTag(value, fieldParamString, protowire.BytesType)
			value = protowire.AppendString(value, v.String)
		case ParamInt:
			value = protowire.AppendTag(value, fieldParamInt, protowire.VarintType)
			value = protowire.AppendVarint(value, uint64(v.Int))
		case ParamBytes:
			value = protowire.AppendTag(value, fieldParamBytes, protowire.BytesType)
			value = protowire.AppendBytes(value, v.Bytes)
		}
		var entry []byte
		entry = protowire.AppendTag(entry, fieldMapKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = appendMessage(entry, fieldMapValue, value)
		b = appendMessage(b, fieldCustomParameters, entry)
	}
	b = appendString(b, fieldCustomDescription, c.Description)
	return
}

// field is one decoded protobuf field; bytes for length delimited ones, varint otherwise.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// fields decodes every field of a message, calling fn for each.
func fields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
		}
		b = b[n:]
		var f = field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return errors.Wrapf(ErrMalformed, "field %d: %s", num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Unmarshal decodes a model from protobuf wire format. Unknown fields are skipped.
func Unmarshal(b []byte) (*Model, error) {
	var m Model
	err := fields(b, func(f field) error {
		switch f.num {
		case fieldModelSpecificationVersion:
			m.SpecificationVersion = int32(f.varint)
		case fieldModelDescription:
			return unmarshalDescription(f.bytes, &m.Description)
		case fieldModelCustom:
			return unmarshalCustom(f.bytes, &m.Custom)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func unmarshalDescription(b []byte, d *ModelDescription) error {
	return fields(b, func(f field) error {
		switch f.num {
		case fieldDescriptionInput, fieldDescriptionOutput:
			var fd FeatureDescription
			if err := unmarshalFeature(f.bytes, &fd); err != nil {
				return err
			}
			if f.num == fieldDescriptionInput {
				d.Inputs = append(d.Inputs, fd)
			} else {
				d.Outputs = append(d.Outputs, fd)
			}
		case fieldDescriptionPredicted:
			d.PredictedFeatureName = string(f.bytes)
		case fieldDescriptionMetadata:
			return unmarshalMetadata(f.bytes, &d.Metadata)
		}
		return nil
	})
}

func unmarshalFeature(b []byte, fd *FeatureDescription) error {
	return fields(b, func(f field) error {
		switch f.num {
		case fieldFeatureName:
			fd.Name = string(f.bytes)
		case fieldFeatureDescription:
			fd.ShortDescription = string(f.bytes)
		case fieldFeatureType:
			return fields(f.bytes, func(t field) error {
				switch t.num {
				case fieldTypeImage:
					fd.Type.Image = new(ImageFeatureType)
					return unmarshalImage(t.bytes, fd.Type.Image)
				case fieldTypeMultiArray:
					fd.Type.MultiArray = new(ArrayFeatureType)
					return unmarshalArray(t.bytes, fd.Type.MultiArray)
				}
				return nil
			})
		}
		return nil
	})
}

func unmarshalImage(b []byte, img *ImageFeatureType) error {
	return fields(b, func(f field) error {
		switch f.num {
		case fieldImageWidth:
			img.Width = int64(f.varint)
		case fieldImageHeight:
			img.Height = int64(f.varint)
		case fieldImageColorSpace:
			img.ColorSpace = ColorSpace(f.varint)
		}
		return nil
	})
}

func unmarshalArray(b []byte, arr *ArrayFeatureType) error {
	return fields(b, func(f field) error {
		switch f.num {
		case fieldArrayShape:
			if f.typ == protowire.VarintType {
				arr.Shape = append(arr.Shape, int64(f.varint))
				return nil
			}
			// packed
			for p := f.bytes; len(p) > 0; {
				v, n := protowire.ConsumeVarint(p)
				if n < 0 {
					return errors.Wrap(ErrMalformed, "packed shape")
				}
				arr.Shape = append(arr.Shape, int64(v))
				p = p[n:]
			}
		case fieldArrayDataType:
			arr.DataType = ArrayDataType(f.varint)
		}
		return nil
	})
}

// mapEntry decodes a map entry with a string key.
func mapEntry(b []byte) (key string, value field, err error) {
	err = fields(b, func(f field) error {
		switch f.num {
		case fieldMapKey:
			key = string(f.bytes)
		case fieldMapValue:
			value = f
		}
		return nil
	})
	return
}

func unmarshalMetadata(b []byte, m *Metadata) error {
	return fields(b, func(f field) error {
		switch f.num {
		case fieldMetadataShortDescription:
			m.ShortDescription = string(f.bytes)
		case fieldMetadataVersion:
			m.VersionString = string(f.bytes)
		case fieldMetadataAuthor:
			m.Author = string(f.bytes)
		case fieldMetadataLicense:
			m.License = string(f.bytes)
		case fieldMetadataUserDefined:
			key, value, err := mapEntry(f.bytes)
			if err != nil {
				return err
			}
			if m.UserDefined == nil {
				m.UserDefined = make(map[string]string)
			}
			m.UserDefined[key] = string(value.bytes)
		}
		return nil
	})
}

func unmarshalCustom(b []byte, c *CustomModel) error {
	return fields(b, func(f field) error {
		switch f.num {
		case fieldCustomClassName:
			c.ClassName = string(f.bytes)
		case fieldCustomDescription:
			c.Description = string(f.bytes)
		case fieldCustomParameters:
			key, value, err := mapEntry(f.bytes)
			if err != nil {
				return err
			}
			var p ParamValue
			err = fields(value.bytes, func(v field) error {
				switch v.num {
				case fieldParamString:
					p = StringParam(string(v.bytes))
				case fieldParamInt:
					p = IntParam(int64(v.varint))
				case fieldParamBytes:
					p = BytesParam(append([]byte(nil), v.bytes...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			if c.Parameters == nil {
				c.Parameters = make(map[string]ParamValue)
			}
			c.Parameters[key] = p
		}
		return nil
	})
}
