package match

import (
	"github.com/sells-group/fieldops/internal/model"
)

// Thresholds holds the tunable similarity cutoffs for the fuzzy stages.
// Scores must strictly exceed the threshold to count as a match. Addresses
// vary more in formatting than names, so they get a looser cutoff.
type Thresholds struct {
	Name    float64 `yaml:"name_threshold"`
	Address float64 `yaml:"address_threshold"`
}

// DefaultThresholds are the stock cutoffs used when no profile is loaded.
var DefaultThresholds = Thresholds{
	Name:    0.8,
	Address: 0.7,
}

// kindConfig describes which fields participate in matching for a record kind.
type kindConfig struct {
	matchEmail bool // stage 1: exact email
	matchPhone bool // stage 1: exact phone
	splitName  bool // fuzzy name compares first and last independently
}

var kindConfigs = map[model.RecordKind]kindConfig{
	model.KindLead:    {matchEmail: true, matchPhone: true},
	model.KindContact: {matchEmail: true, matchPhone: true, splitName: true},
	model.KindAccount: {},
}

// stage is one matching strategy in the cascade. It returns the existing
// records it considers duplicates of the candidate, or nil.
type stage func(c model.Candidate, existing []model.Record) []model.Record

// Detector finds likely duplicates of a candidate among existing records of
// the same kind. It is a pure read-and-compare component: the decision to
// block a write or surface a warning belongs to the caller.
type Detector struct {
	kind       model.RecordKind
	thresholds Thresholds
	stages     []stage
}

// NewDetector builds a detector for the given record kind. Zero-valued
// threshold fields fall back to DefaultThresholds.
func NewDetector(kind model.RecordKind, th Thresholds) *Detector {
	if th.Name == 0 {
		th.Name = DefaultThresholds.Name
	}
	if th.Address == 0 {
		th.Address = DefaultThresholds.Address
	}
	d := &Detector{kind: kind, thresholds: th}

	cfg := kindConfigs[kind]
	if cfg.matchEmail || cfg.matchPhone {
		d.stages = append(d.stages, d.exactContactStage(cfg))
	}
	d.stages = append(d.stages, d.exactPlaceStage())
	if cfg.splitName {
		d.stages = append(d.stages, d.splitNameStage())
	} else {
		d.stages = append(d.stages, d.fullNameStage())
	}
	d.stages = append(d.stages, d.addressStage())
	return d
}

// FindDuplicates runs the cascade against the given snapshot of existing
// records and returns the matches from the first stage that finds any.
// The candidate's own record (ExcludeID) never appears in the result; an
// empty result is the normal "no duplicates" outcome, not an error.
func (d *Detector) FindDuplicates(c model.Candidate, existing []model.Record) []model.Record {
	for _, s := range d.stages {
		if matches := s(c, existing); len(matches) > 0 {
			return matches
		}
	}
	return nil
}

// exactContactStage matches on exactly equal email, then phone. If an email
// is present and produced matches, phone is not consulted for that call.
func (d *Detector) exactContactStage(cfg kindConfig) stage {
	return func(c model.Candidate, existing []model.Record) []model.Record {
		if cfg.matchEmail && c.Email != "" {
			if matches := collect(c, existing, func(r model.Record) bool {
				return r.Email == c.Email
			}); len(matches) > 0 {
				return matches
			}
		}
		if cfg.matchPhone && c.Phone != "" {
			return collect(c, existing, func(r model.Record) bool {
				return r.Phone == c.Phone
			})
		}
		return nil
	}
}

// exactPlaceStage matches on the third-party place identifier, the highest
// confidence signal for a physical location.
func (d *Detector) exactPlaceStage() stage {
	return func(c model.Candidate, existing []model.Record) []model.Record {
		if c.PlaceID == "" {
			return nil
		}
		return collect(c, existing, func(r model.Record) bool {
			return r.PlaceID == c.PlaceID
		})
	}
}

// fullNameStage fuzzy-matches the candidate's single name field.
func (d *Detector) fullNameStage() stage {
	return func(c model.Candidate, existing []model.Record) []model.Record {
		name := Normalize(c.Name)
		if name == "" {
			return nil
		}
		return collect(c, existing, func(r model.Record) bool {
			return Similarity(name, Normalize(r.Name)) > d.thresholds.Name
		})
	}
}

// splitNameStage fuzzy-matches first and last names independently; both must
// exceed the name threshold. First/last transpositions and shared surnames
// are common, so the combined requirement is stricter than a concatenated
// name comparison.
func (d *Detector) splitNameStage() stage {
	return func(c model.Candidate, existing []model.Record) []model.Record {
		first := Normalize(c.FirstName)
		last := Normalize(c.LastName)
		if first == "" && last == "" {
			return nil
		}
		return collect(c, existing, func(r model.Record) bool {
			return Similarity(first, Normalize(r.FirstName)) > d.thresholds.Name &&
				Similarity(last, Normalize(r.LastName)) > d.thresholds.Name
		})
	}
}

// addressStage fuzzy-matches the free-text address. Only reached when no
// stronger signal fired.
func (d *Detector) addressStage() stage {
	return func(c model.Candidate, existing []model.Record) []model.Record {
		addr := Normalize(c.Address)
		if addr == "" {
			return nil
		}
		return collect(c, existing, func(r model.Record) bool {
			return Similarity(addr, Normalize(r.Address)) > d.thresholds.Address
		})
	}
}

// collect filters existing records by pred, skipping the candidate's own
// record when ExcludeID is set.
func collect(c model.Candidate, existing []model.Record, pred func(model.Record) bool) []model.Record {
	var out []model.Record
	for _, r := range existing {
		if c.ExcludeID != "" && r.ID == c.ExcludeID {
			continue
		}
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
