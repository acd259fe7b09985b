// Package identity turns the many shapes an entity id arrives in (string,
// number, object carrying `_id` or `id`) into one canonical string.
package identity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxDepth bounds recursion through nested id objects such as {"_id": {"id": 7}}.
const maxDepth = 4

// Resolve returns the canonical id for value, or "" when none can be found.
// It never panics; callers treat "" as "drop this record".
func Resolve(value any) string {
	return resolve(value, 0)
}

// Equal reports whether both values resolve to the same non-empty id.
func Equal(a, b any) bool {
	left := Resolve(a)
	return left != "" && left == Resolve(b)
}

func resolve(value any, depth int) (id string) {
	if depth > maxDepth {
		return ""
	}
	defer func() {
		// a Stringer on a nil receiver can panic; resolution must stay total
		if recover() != nil {
			id = ""
		}
	}()

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	case json.Number:
		return strings.TrimSpace(v.String())
	case json.RawMessage:
		return resolveRaw(v, depth)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case bool:
		return ""
	case map[string]any:
		return resolveObject(v, depth)
	case map[string]string:
		if id := strings.TrimSpace(v["_id"]); id != "" {
			return id
		}
		return strings.TrimSpace(v["id"])
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func resolveObject(obj map[string]any, depth int) string {
	for _, key := range []string{"_id", "id"} {
		if raw, ok := obj[key]; ok {
			if id := resolve(raw, depth+1); id != "" {
				return id
			}
		}
	}
	return ""
}

func resolveRaw(raw json.RawMessage, depth int) string {
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()
	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return ""
	}
	return resolve(decoded, depth+1)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
