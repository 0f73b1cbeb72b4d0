package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadThresholds reads a similarity threshold profile from a YAML file.
// Missing values fall back to DefaultThresholds.
//
// The file has a top-level "match" key:
//
//	match:
//	  name_threshold: 0.8
//	  address_threshold: 0.7
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, eris.Wrapf(err, "match: read profile %s", path)
	}

	var wrapper struct {
		Match Thresholds `yaml:"match"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Thresholds{}, eris.Wrap(err, "match: parse profile")
	}

	th := wrapper.Match
	if th.Name == 0 {
		th.Name = DefaultThresholds.Name
	}
	if th.Address == 0 {
		th.Address = DefaultThresholds.Address
	}
	if th.Name < 0 || th.Name > 1 || th.Address < 0 || th.Address > 1 {
		return Thresholds{}, eris.Errorf("match: thresholds out of range: name=%v address=%v", th.Name, th.Address)
	}
	return th, nil
}
