package collection

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kailas-cloud/lexidex/internal/domain/field"
)

// validate runs the Validator (C2) checks in declared order: first
// failure wins so callers and tests can assert the specific rejection
// reason. doc has already had its id field normalized.
func (c *Collection) validate(doc map[string]any) error {
	if c.tokenRankingField != "" {
		v, ok := doc[c.tokenRankingField]
		if !ok {
			return ErrValidation(fmt.Sprintf("token ranking field %q is required", c.tokenRankingField))
		}
		if err := validateRankingValue(c.tokenRankingField, v); err != nil {
			return err
		}
	}

	for _, f := range c.schema.Fields() {
		v, ok := doc[f.Name()]
		if !ok {
			return ErrValidation(fmt.Sprintf("field %q is required", f.Name()))
		}
		if err := validateFieldType(f, v); err != nil {
			return err
		}
	}

	for _, f := range c.schema.FacetFields() {
		v := doc[f]
		ff, _ := c.schema.FacetField(f)
		if !ff.Type().IsString() {
			return ErrValidation(fmt.Sprintf("facet field %q must be string or string[]", f))
		}
		if err := validateFieldType(ff, v); err != nil {
			return err
		}
	}

	return nil
}

func validateRankingValue(name string, v any) error {
	switch n := v.(type) {
	case json.Number:
		if _, err := n.Int64(); err == nil {
			i, _ := n.Int64()
			if i > math.MaxInt32 || i < math.MinInt32 {
				return ErrValidation(fmt.Sprintf("token ranking field %q exceeds int32 range", name))
			}
			return nil
		}
		if _, err := n.Float64(); err == nil {
			return nil
		}
		return ErrValidation(fmt.Sprintf("token ranking field %q is not numeric", name))
	default:
		return ErrValidation(fmt.Sprintf("token ranking field %q is not numeric", name))
	}
}

func validateFieldType(f field.Field, v any) error {
	switch f.Type() {
	case field.String:
		if _, ok := v.(string); !ok {
			return ErrValidation(fmt.Sprintf("field %q must be a string", f.Name()))
		}
	case field.StringArray:
		arr, ok := v.([]any)
		if !ok {
			return ErrValidation(fmt.Sprintf("field %q must be an array", f.Name()))
		}
		if len(arr) > 0 {
			if _, ok := arr[0].(string); !ok {
				return ErrValidation(fmt.Sprintf("field %q must be a string array", f.Name()))
			}
		}
	case field.Int32, field.Int64:
		n, ok := v.(json.Number)
		if !ok {
			return ErrValidation(fmt.Sprintf("field %q must be an integer", f.Name()))
		}
		i, err := n.Int64()
		if err != nil {
			return ErrValidation(fmt.Sprintf("field %q must be an integer", f.Name()))
		}
		if f.Type() == field.Int32 && (i > math.MaxInt32 || i < math.MinInt32) {
			return ErrValidation(fmt.Sprintf("field %q exceeds int32 range", f.Name()))
		}
	case field.Float:
		n, ok := v.(json.Number)
		if !ok {
			return ErrValidation(fmt.Sprintf("field %q must be numeric", f.Name()))
		}
		if _, err := n.Float64(); err != nil {
			return ErrValidation(fmt.Sprintf("field %q must be numeric", f.Name()))
		}
	case field.Int32Array, field.Int64Array, field.FloatArray:
		arr, ok := v.([]any)
		if !ok {
			return ErrValidation(fmt.Sprintf("field %q must be an array", f.Name()))
		}
		// Design choice preserved for parity: only the first element is
		// type-checked, not every element (spec §4.1 item 2, §9).
		if len(arr) > 0 {
			if _, ok := arr[0].(json.Number); !ok {
				return ErrValidation(fmt.Sprintf("field %q must be a numeric array", f.Name()))
			}
		}
	}
	return nil
}
