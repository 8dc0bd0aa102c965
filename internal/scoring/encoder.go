package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roadrank/roadrank/internal/errors"
)

// EncoderTable maps categorical field values to the numeric codes the model
// was trained with. Immutable after construction; safe for concurrent reads.
type EncoderTable struct {
	fields map[string]map[string]float64
}

// NewEncoderTable returns the built-in table matching the training
// vocabularies for road type, time of day and weather.
func NewEncoderTable() *EncoderTable {
	return &EncoderTable{
		fields: map[string]map[string]float64{
			FieldRoadType: {
				"highway":     0,
				"main_road":   1,
				"city_street": 2,
				"residential": 3,
			},
			FieldTimeOfDay: {
				"morning_rush": 0,
				"midday":       1,
				"evening_rush": 2,
				"night":        3,
				"late_night":   4,
			},
			FieldWeather: {
				"clear":      0,
				"light_rain": 1,
				"heavy_rain": 2,
				"sandstorm":  3,
				"fog":        4,
			},
		},
	}
}

// LoadEncoderTable reads an encoder artifact from a JSON file of the shape
// {"field": {"value": code, ...}, ...}.
func LoadEncoderTable(path string) (*EncoderTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open encoder artifact: %w", err)
	}
	defer file.Close()

	var fields map[string]map[string]float64
	if err := json.NewDecoder(file).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode encoder artifact: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("encoder artifact %s holds no fields", path)
	}

	return &EncoderTable{fields: fields}, nil
}

// Encode maps a raw categorical value to its trained code. Values not seen
// during training fail with an UnknownCategory error; they are never
// silently zero-filled.
func (e *EncoderTable) Encode(field, raw string) (float64, error) {
	values, ok := e.fields[field]
	if !ok {
		return 0, errors.NewUnknownCategoryError(field, raw)
	}
	code, ok := values[raw]
	if !ok {
		return 0, errors.NewUnknownCategoryError(field, raw)
	}
	return code, nil
}

// Knows reports whether the field/value pair was seen during training.
func (e *EncoderTable) Knows(field, raw string) bool {
	values, ok := e.fields[field]
	if !ok {
		return false
	}
	_, ok = values[raw]
	return ok
}
