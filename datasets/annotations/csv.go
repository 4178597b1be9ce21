package annotations

import "bufio"
import "encoding/json"
import "io"
import "strings"

import "github.com/pkg/errors"

const (
	columnImagePath   = "image_path"
	columnAnnotations = "annotations"
)

// Parse reads annotation rows from csv. The first record is the header and must name
// the image_path and annotations columns. Fields are separated by commas outside of
// brackets, braces and quotes, so the annotation list needs no csv quoting.
func Parse(r io.Reader) ([]Row, error) {
	var sc = bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var (
		rows     []Row
		header   []string
		pathCol  = -1
		annotCol = -1
		line     int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if text == "" {
			continue
		}
		fields, err := splitRecord(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if header == nil {
			header = fields
			for i, name := range header {
				switch name {
				case columnImagePath:
					pathCol = i
				case columnAnnotations:
					annotCol = i
				}
			}
			if pathCol < 0 {
				return nil, errors.Errorf("line %d: missing column %q", line, columnImagePath)
			}
			if annotCol < 0 {
				return nil, errors.Errorf("line %d: missing column %q", line, columnAnnotations)
			}
			continue
		}
		if len(fields) < len(header) {
			return nil, errors.Errorf("line %d: %d fields, header has %d", line, len(fields), len(header))
		}
		anns, err := ParseAnnotations(fields[annotCol])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, Row{ImagePath: fields[pathCol], Annotations: anns})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if header == nil {
		return nil, errors.New("empty csv, no header")
	}
	return rows, nil
}

// splitRecord splits one csv line into trimmed, unquoted fields.
func splitRecord(text string) (fields []string, err error) {
	var (
		depth int
		quote rune
		start int
	)
	for i, c := range text {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"':
			quote = c
		case c == '\'' && depth > 0:
			quote = c
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth < 0 {
				return nil, errors.Errorf("unbalanced %q at column %d", c, i+1)
			}
		case c == ',' && depth == 0:
			fields = append(fields, unquoteField(text[start:i]))
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, errors.Errorf("unterminated %q quote", quote)
	}
	if depth != 0 {
		return nil, errors.New("unbalanced brackets")
	}
	return append(fields, unquoteField(text[start:])), nil
}

func unquoteField(f string) string {
	f = strings.TrimSpace(f)
	if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
		f = strings.ReplaceAll(f[1:len(f)-1], `""`, `"`)
		f = strings.TrimSpace(f)
	}
	return f
}

type jsonCoordinates struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type jsonAnnotation struct {
	Label       *string          `json:"label"`
	Type        string           `json:"type"`
	Coordinates *jsonCoordinates `json:"coordinates"`
}

// ParseAnnotations parses an annotation list literal. Strings may be single or
// double quoted. An empty literal means no objects.
func ParseAnnotations(literal string) ([]Annotation, error) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return nil, nil
	}
	var list []jsonAnnotation
	if err := json.Unmarshal([]byte(doubleQuote(literal)), &list); err != nil {
		return nil, errors.Wrap(err, "annotations")
	}
	var out = make([]Annotation, 0, len(list))
	for i, a := range list {
		if a.Label == nil {
			return nil, errors.Errorf("annotation %d: missing label", i)
		}
		c := a.Coordinates
		if c == nil || c.X == nil || c.Y == nil || c.Width == nil || c.Height == nil {
			return nil, errors.Errorf("annotation %d (%s): missing coordinates", i, *a.Label)
		}
		if *c.Width < 0 || *c.Height < 0 {
			return nil, errors.Errorf("annotation %d (%s): negative size %gx%g", i, *a.Label, *c.Width, *c.Height)
		}
		typ := a.Type
		if typ == "" {
			typ = "rectangle"
		}
		out = append(out, Annotation{
			Label: *a.Label,
			Type:  typ,
			Coordinates: Coordinates{
				X:      *c.X,
				Y:      *c.Y,
				Width:  *c.Width,
				Height: *c.Height,
			},
		})
	}
	return out, nil
}

// doubleQuote rewrites single quoted strings of literal as json strings.
func doubleQuote(literal string) string {
	var b strings.Builder
	var quote rune
	var escaped bool
	for _, c := range literal {
		switch {
		case escaped:
			escaped = false
			if quote == '\'' && c == '\'' {
				b.WriteRune(c)
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(c)
		case quote != 0 && c == '\\':
			escaped = true
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
			b.WriteRune('"')
		case quote != 0 && c == quote:
			quote = 0
			b.WriteRune('"')
		case quote == '\'' && c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
