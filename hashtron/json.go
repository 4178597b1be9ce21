package hashtron

import "encoding/json"
import "fmt"
import "io"

type jsonHashtron struct {
	Bits       byte        `json:"bits"`
	Program    [][2]uint32 `json:"program"`
	Quaternary []byte      `json:"quaternary,omitempty"`
}

// MarshalJSON serializes the hashtron program, bits and quaternary filter
func (h Hashtron) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonHashtron{
		Bits:       h.bits,
		Program:    h.program,
		Quaternary: h.quaternary,
	})
}

// UnmarshalJSON loads the hashtron, validating it the same way NewFilter does
func (h *Hashtron) UnmarshalJSON(data []byte) error {
	var j jsonHashtron
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if len(j.Program) == 0 {
		return fmt.Errorf("hashtron json: empty program")
	}
	n, err := NewFilter(j.Program, j.Bits, j.Quaternary)
	if err != nil {
		return err
	}
	*h = *n
	return nil
}

// WriteJson writes the hashtron as json
func (h Hashtron) WriteJson(w io.Writer) error {
	return json.NewEncoder(w).Encode(h)
}

// ReadJson reads one json hashtron from r
func (h *Hashtron) ReadJson(r io.Reader) error {
	return json.NewDecoder(r).Decode(h)
}
