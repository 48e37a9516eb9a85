package archive

import (
	"encoding/json"
	"strconv"
	"strings"
)

// stringOrList decodes archive fields that arrive as a bare string, a
// number, or a list of either, depending on the item.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = flatten(raw)
	return nil
}

// Values returns the decoded entries; nil when the field was absent.
func (s stringOrList) Values() []string {
	return []string(s)
}

// First returns the first entry or the empty string.
func (s stringOrList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func flatten(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, flatten(item)...)
		}
		return out
	}
	return nil
}
