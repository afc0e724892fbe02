package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Scalar is a JSON value that the planner backends send either as a number
// or as a preformatted string.
type Scalar struct {
	Num   float64
	Str   string
	IsNum bool
}

func Number(f float64) Scalar {
	return Scalar{Num: f, IsNum: true}
}

func Text(s string) Scalar {
	return Scalar{Str: s}
}

func (s Scalar) String() string {
	if s.IsNum {
		return strconv.FormatFloat(s.Num, 'f', -1, 64)
	}
	return s.Str
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.IsNum {
		return json.Marshal(s.Num)
	}
	return json.Marshal(s.Str)
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Scalar{}
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Text(str)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*s = Text(string(data))
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("scalar: %w", err)
		}
		*s = Number(f)
	}
	return nil
}
