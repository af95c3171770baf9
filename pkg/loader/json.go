package loader

import (
	"bytes"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// readJSON accepts a JSON array of objects or one object per line.
func readJSON(data []byte) ([]record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		if !gjson.ValidBytes(data) {
			return nil, errors.New("invalid JSON")
		}
		var out []record
		gjson.ParseBytes(data).ForEach(func(_, value gjson.Result) bool {
			if value.IsObject() {
				out = append(out, objectRecord(value))
			}
			return true
		})
		return out, nil
	}

	var out []record
	var err error
	gjson.ForEachLine(string(data), func(line gjson.Result) bool {
		raw := strings.TrimSpace(line.Raw)
		if raw == "" {
			return true
		}
		if !gjson.Valid(raw) || !line.IsObject() {
			err = errors.New("invalid JSON line: " + truncate(raw, 60))
			return false
		}
		out = append(out, objectRecord(line))
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// objectRecord flattens the scalar fields of a JSON object. Nested objects and
// arrays are kept as raw JSON; nulls become empty strings.
func objectRecord(obj gjson.Result) record {
	rec := make(record)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := strings.ToLower(strings.TrimSpace(key.String()))
		switch value.Type {
		case gjson.Null:
			rec[k] = ""
		case gjson.JSON:
			rec[k] = value.Raw
		default:
			rec[k] = value.String()
		}
		return true
	})
	return rec
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
