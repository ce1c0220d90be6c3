package course

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Phonemes is an ordered phoneme sequence. Course files sometimes carry a
// single phoneme as a bare string; both forms decode to a list.
type Phonemes []string

// UnmarshalJSON accepts null, a string or an array of strings
func (p *Phonemes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = splitPhonemes(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*p = items
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence
func (p *Phonemes) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Tag == "!!null" {
			*p = nil
			return nil
		}
		*p = splitPhonemes(value.Value)
		return nil
	}
	var items []string
	if err := value.Decode(&items); err != nil {
		return err
	}
	*p = items
	return nil
}

func splitPhonemes(s string) Phonemes {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return Phonemes(fields)
}
