package feedforward

import "compress/lzw"
import "encoding/json"
import "fmt"
import "io"

import "github.com/neurlang/detector/hashtron"

// WriteCompressedWeights writes model weights as a lzw compressed json array of hashtrons
func (f FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)

	var all = make([]hashtron.Hashtron, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		all = append(all, *f.GetHashtron(i))
	}
	if err := json.NewEncoder(lw).Encode(all); err != nil {
		lw.Close()
		return err
	}
	return lw.Close()
}

// ReadCompressedWeights reads model weights into an already shaped network
func (f *FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var all []hashtron.Hashtron
	if err := json.NewDecoder(lr).Decode(&all); err != nil {
		return err
	}
	if len(all) != f.Len() {
		return fmt.Errorf("weights hold %d hashtrons, network has %d", len(all), f.Len())
	}
	for i := range all {
		if all[i].Bits() != f.GetHashtron(i).Bits() {
			return fmt.Errorf("hashtron %d has %d bits, network wants %d", i, all[i].Bits(), f.GetHashtron(i).Bits())
		}
		*f.GetHashtron(i) = all[i]
	}
	return nil
}
