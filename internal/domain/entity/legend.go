package entity

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

type LegendEntry struct {
	Code CellType
	Name string
}

// Legend maps cell codes to zone names. Decoded legends list codes in
// ascending order; name keys follow in the order the backend sent them.
type Legend []LegendEntry

// Name looks up the display name for a code.
func (l Legend) Name(code CellType) (string, bool) {
	for _, e := range l {
		if e.Code == code {
			return e.Name, true
		}
	}
	return "", false
}

func (l Legend) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(int(e.Code))))
		buf.WriteByte(':')
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts both {"<code>": "<name>"} and the older
// {"<name>": <code>} shape.
func (l *Legend) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}
	var out Legend
	err := DecodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			code, err := strconv.Atoi(key)
			if err != nil {
				return fmt.Errorf("legend key %q is not a cell code", key)
			}
			out = append(out, LegendEntry{Code: CellType(code), Name: name})
			return nil
		}
		var code int
		if err := json.Unmarshal(raw, &code); err != nil {
			return fmt.Errorf("legend entry %q: %w", key, err)
		}
		out = append(out, LegendEntry{Code: CellType(code), Name: key})
		return nil
	})
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// DecodeOrderedObject calls fn for every member of a JSON object in the order
// a browser lists object properties: integer-like keys first in ascending
// numeric order, then the remaining keys in document order.
func DecodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	type member struct {
		key   string
		index uint64
		isIdx bool
		raw   json.RawMessage
	}
	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		idx, isIdx := arrayIndex(key)
		m := member{key: key, index: idx, isIdx: isIdx, raw: raw}
		// a repeated key keeps its first position and takes the last value
		if i := slices.IndexFunc(members, func(e member) bool { return e.key == key }); i >= 0 {
			members[i].raw = raw
			continue
		}
		members = append(members, m)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	slices.SortStableFunc(members, func(a, b member) int {
		switch {
		case a.isIdx && b.isIdx:
			return cmp.Compare(a.index, b.index)
		case a.isIdx:
			return -1
		case b.isIdx:
			return 1
		default:
			return 0
		}
	})
	for _, m := range members {
		if err := fn(m.key, m.raw); err != nil {
			return err
		}
	}
	return nil
}

// arrayIndex reports whether key is a canonical array index ("0", "12", but
// not "012" or "-1").
func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}
