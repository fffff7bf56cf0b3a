package lib

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidOutcome = errors.New("lib: claimed outcome is invalid")
)

// Outcome is the client's claimed result of a puzzle run. The server trusts
// the success flag as-is and does not replay the move sequence, so a hostile
// client can claim success without solving anything. Engine-specific extras
// ride along untyped.
type Outcome struct {
	Success bool
	Moves   int
	Extra   map[string]json.RawMessage
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOutcome, err)
	}

	success, ok := raw["success"]
	if !ok {
		return fmt.Errorf("%w: success is missing", ErrInvalidOutcome)
	}
	if err := json.Unmarshal(success, &o.Success); err != nil {
		return fmt.Errorf("%w: success is not a boolean: %w", ErrInvalidOutcome, err)
	}
	delete(raw, "success")

	if moves, ok := raw["moves"]; ok {
		if err := json.Unmarshal(moves, &o.Moves); err != nil {
			return fmt.Errorf("%w: moves is not an integer: %w", ErrInvalidOutcome, err)
		}
		if o.Moves < 0 {
			return fmt.Errorf("%w: moves is negative", ErrInvalidOutcome)
		}
		delete(raw, "moves")
	}

	if len(raw) > 0 {
		o.Extra = raw
	}

	return nil
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	result := map[string]any{
		"success": o.Success,
		"moves":   o.Moves,
	}
	for k, v := range o.Extra {
		result[k] = v
	}
	return json.Marshal(result)
}
