package storage

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Byte strings and tuples have no JSON form of their own. They are stored as
// prefixed strings so an exported snapshot can be read back without losing
// their type.
const (
	bytesPrefix = "bytes:"
	tuplePrefix = "tuple:"
)

// Leaf is the value stored at every attribute of a snapshot.
type Leaf struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Unit  string      `json:"unit,omitempty"`
}

func EncodeBytes(b []byte) string {
	return bytesPrefix + hex.EncodeToString(b)
}

func EncodeTuple(values ...int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}

	return tuplePrefix + strings.Join(parts, ",")
}

// DecodeValue reverses EncodeBytes and EncodeTuple, returning []byte and
// []int64 respectively. Anything else, including malformed prefixed strings,
// is returned unchanged.
func DecodeValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}

	switch {
	case strings.HasPrefix(s, bytesPrefix):
		b, err := hex.DecodeString(strings.TrimPrefix(s, bytesPrefix))
		if err != nil {
			return v
		}

		return b

	case strings.HasPrefix(s, tuplePrefix):
		body := strings.TrimPrefix(s, tuplePrefix)
		if body == "" {
			return []int64{}
		}

		parts := strings.Split(body, ",")
		values := make([]int64, len(parts))

		for i, part := range parts {
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return v
			}

			values[i] = n
		}

		return values
	}

	return v
}
