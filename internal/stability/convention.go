package stability

import "fmt"

// FrequencyConvention selects how the natural frequency is expressed.
type FrequencyConvention string

// DampingConvention selects the moment arms used for aerodynamic damping.
type DampingConvention string

// CPConvention selects how component centres of pressure combine into the
// vehicle centre of pressure.
type CPConvention string

const (
	// FrequencyAngular reports sqrt(C1/I) in rad/s.
	FrequencyAngular FrequencyConvention = "angular"
	// FrequencyHertz divides the angular frequency by 2*pi.
	FrequencyHertz FrequencyConvention = "hertz"

	// DampingPerComponent sums cna_i*(cp_i-cg)^2 over components.
	DampingPerComponent DampingConvention = "per_component"
	// DampingAggregate uses the vehicle cna and cp as a single arm.
	DampingAggregate DampingConvention = "aggregate"

	// CPSum adds component centres of pressure.
	CPSum CPConvention = "sum"
	// CPWeighted averages component centres of pressure weighted by cna.
	CPWeighted CPConvention = "weighted"
)

// Convention bundles the formula choices that differ between historical
// reductions of the same data.
type Convention struct {
	NaturalFrequency FrequencyConvention `yaml:"natural_frequency" json:"natural_frequency"`
	AeroDamping      DampingConvention   `yaml:"aero_damping" json:"aero_damping"`
	CPCombine        CPConvention        `yaml:"cp_combine" json:"cp_combine"`
}

func DefaultConvention() Convention {
	return Convention{
		NaturalFrequency: FrequencyAngular,
		AeroDamping:      DampingPerComponent,
		CPCombine:        CPSum,
	}
}

// WithDefaults fills empty fields from DefaultConvention.
func (c Convention) WithDefaults() Convention {
	d := DefaultConvention()
	if c.NaturalFrequency == "" {
		c.NaturalFrequency = d.NaturalFrequency
	}
	if c.AeroDamping == "" {
		c.AeroDamping = d.AeroDamping
	}
	if c.CPCombine == "" {
		c.CPCombine = d.CPCombine
	}
	return c
}

func (c Convention) Validate() error {
	switch c.NaturalFrequency {
	case FrequencyAngular, FrequencyHertz, "":
	default:
		return fmt.Errorf("%w: natural frequency %q", ErrConvention, c.NaturalFrequency)
	}
	switch c.AeroDamping {
	case DampingPerComponent, DampingAggregate, "":
	default:
		return fmt.Errorf("%w: aero damping %q", ErrConvention, c.AeroDamping)
	}
	switch c.CPCombine {
	case CPSum, CPWeighted, "":
	default:
		return fmt.Errorf("%w: cp combine %q", ErrConvention, c.CPCombine)
	}
	return nil
}
