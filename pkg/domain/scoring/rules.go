package scoring

import "github.com/m-mizutani/goerr/v2"

// MaxRawScore is the highest contribution of a single question
const MaxRawScore = 10.0

// NeutralRawScore is assigned to answers whose question type is not known
const NeutralRawScore = 5.0

// Rules are the per-type scoring parameters. The zero value is not valid;
// start from DefaultRules.
type Rules struct {
	// BooleanTrue and BooleanFalse are the raw scores of yes/no answers
	BooleanTrue  float64
	BooleanFalse float64

	// OrdinalStep is subtracted from MaxRawScore per option position
	OrdinalStep float64

	// NumericDivisor scales numeric answers into [0, MaxRawScore]
	NumericDivisor float64
}

// DefaultRules returns the product scoring heuristics
func DefaultRules() Rules {
	return Rules{
		BooleanTrue:    10,
		BooleanFalse:   0,
		OrdinalStep:    2,
		NumericDivisor: 10,
	}
}

// Validate checks that the rules keep every raw score inside [0, 10]
func (r Rules) Validate() error {
	if r.BooleanTrue < 0 || r.BooleanTrue > MaxRawScore {
		return goerr.New("boolean true score must be within [0, 10]", goerr.V("value", r.BooleanTrue))
	}
	if r.BooleanFalse < 0 || r.BooleanFalse > MaxRawScore {
		return goerr.New("boolean false score must be within [0, 10]", goerr.V("value", r.BooleanFalse))
	}
	if r.OrdinalStep < 0 {
		return goerr.New("ordinal step must not be negative", goerr.V("value", r.OrdinalStep))
	}
	if r.NumericDivisor <= 0 {
		return goerr.New("numeric divisor must be positive", goerr.V("value", r.NumericDivisor))
	}
	return nil
}
