package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Metric is one entry of a plan's metrics panel. Key is empty when the
// backend sent a plain list of preformatted lines.
type Metric struct {
	Key   string
	Value Scalar
}

type Metrics []Metric

// Get returns the value stored under key.
func (m Metrics) Get(key string) (Scalar, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Scalar{}, false
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	keyed := len(m) == 0 || m[0].Key != ""
	var buf bytes.Buffer
	if keyed {
		buf.WriteByte('{')
	} else {
		buf.WriteByte('[')
	}
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if keyed {
			buf.WriteString(strconv.Quote(e.Key))
			buf.WriteByte(':')
		}
		v, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	if keyed {
		buf.WriteByte('}')
	} else {
		buf.WriteByte(']')
	}
	return buf.Bytes(), nil
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var lines []Scalar
		if err := json.Unmarshal(data, &lines); err != nil {
			return fmt.Errorf("metrics list: %w", err)
		}
		out := make(Metrics, 0, len(lines))
		for _, l := range lines {
			out = append(out, Metric{Value: l})
		}
		*m = out
		return nil
	}
	var out Metrics
	err := DecodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v Scalar
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("metric %q: %w", key, err)
		}
		out = append(out, Metric{Key: key, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}
