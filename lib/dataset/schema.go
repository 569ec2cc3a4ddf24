package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Schema describes a dataset: names of boolean features and names of classes.
// The position in Features is the feature index, the position in Classes is the label.
type Schema struct {
	Name     string   `yaml:"name" json:"name"`
	Features []string `yaml:"features" json:"features"`
	Classes  []string `yaml:"classes" json:"classes"`
}

// LoadSchema reads and validates yaml schema
func LoadSchema(r io.Reader) (Schema, error) {
	var res Schema
	if err := yaml.NewDecoder(r).Decode(&res); err != nil {
		if errors.Is(err, io.EOF) {
			return Schema{}, fmt.Errorf("empty schema")
		}
		return Schema{}, fmt.Errorf("can't decode schema: %w", err)
	}
	if err := res.Validate(); err != nil {
		return Schema{}, err
	}
	return res, nil
}

// NewSchema makes an anonymous schema with generated names, f0..fN and c0..cK
func NewSchema(inputDimension, numberOfClasses int) Schema {
	res := Schema{Features: make([]string, inputDimension), Classes: make([]string, numberOfClasses)}
	for i := range res.Features {
		res.Features[i] = fmt.Sprintf("f%d", i)
	}
	for i := range res.Classes {
		res.Classes[i] = fmt.Sprintf("c%d", i)
	}
	return res
}

// Validate checks the schema has features and classes without duplicates
func (s Schema) Validate() error {
	errs := new(multierror.Error)
	if len(s.Features) == 0 {
		errs = multierror.Append(errs, errors.New("no features defined"))
	}
	if len(s.Classes) == 0 {
		errs = multierror.Append(errs, errors.New("no classes defined"))
	}
	errs = multierror.Append(errs, uniqueNames("feature", s.Features))
	errs = multierror.Append(errs, uniqueNames("class", s.Classes))
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid schema %q: %w", s.Name, err)
	}
	return nil
}

// InputDimension returns number of features
func (s Schema) InputDimension() int { return len(s.Features) }

// NumberOfClasses returns number of classes
func (s Schema) NumberOfClasses() int { return len(s.Classes) }

// ClassIndex returns label for class name, -1 if not found
func (s Schema) ClassIndex(name string) int {
	for i, c := range s.Classes {
		if c == name {
			return i
		}
	}
	return -1
}

// ClassName returns class name for label, empty string for unknown label
func (s Schema) ClassName(label int) string {
	if label < 0 || label >= len(s.Classes) {
		return ""
	}
	return s.Classes[label]
}

// Check verifies that sample fits the schema
func (s Schema) Check(sample Sample) error {
	if len(sample.Features) != len(s.Features) {
		return fmt.Errorf("sample has %d features, schema %q expects %d", len(sample.Features), s.Name, len(s.Features))
	}
	if sample.Label < 0 || sample.Label >= len(s.Classes) {
		return fmt.Errorf("label %d is out of range for schema %q with %d classes", sample.Label, s.Name, len(s.Classes))
	}
	return nil
}

// CheckAll verifies all samples and collects all errors
func (s Schema) CheckAll(samples []Sample) error {
	errs := new(multierror.Error)
	for i, sample := range samples {
		if err := s.Check(sample); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("sample %d: %w", i, err))
		}
	}
	return errs.ErrorOrNil()
}

func uniqueNames(kind string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("empty %s name", kind)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("duplicate %s name %q", kind, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
