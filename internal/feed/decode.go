package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/rwtracker/internal/model"
)

// DecodeItems decodes a feed response into records.
//
// The body is either a JSON array of items or an object wrapping the array
// under "victims", "data" or "items". Every item field is optional; items
// without a published value cannot be keyed and are counted as dropped.
func DecodeItems(r io.Reader) (records []model.Record, dropped int, err error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decode feed: %w", err)
	}

	items, err := itemList(raw)
	if err != nil {
		return nil, 0, err
	}

	records = make([]model.Record, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		rec, ok := recordFromItem(m)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}

func itemList(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"victims", "data", "items"} {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
		return nil, fmt.Errorf("decode feed: object without victim list")
	case nil:
		return []any{}, nil
	default:
		return nil, fmt.Errorf("decode feed: unexpected %T", raw)
	}
}

func recordFromItem(m map[string]any) (model.Record, bool) {
	rec := model.Record{
		Published:   pickStr(m, "published"),
		Activity:    pickStr(m, "activity"),
		Country:     pickStr(m, "country"),
		Description: pickStr(m, "description"),
		Discovered:  pickStr(m, "discovered"),
		GroupName:   pickStr(m, "group_name", "group"),
		PostTitle:   pickStr(m, "post_title", "victim", "title"),
		PostURL:     pickStr(m, "post_url", "url", "claim_url"),
		Screenshot:  pickStr(m, "screenshot"),
		Website:     pickStr(m, "website", "domain"),
		Infostealer: infostealer(m),
	}
	if rec.Published == "" {
		return model.Record{}, false
	}
	rec.TitleMissing = !hasValue(m, "post_title", "victim", "title")
	return rec, true
}

// pickStr returns the first scalar value among keys that is not blank, as a
// string. The value is returned as sent; surrounding whitespace is kept.
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		case bool:
			s = fmt.Sprint(val)
		default:
			continue
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func hasValue(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return true
		}
	}
	return false
}

// infostealer keeps the auxiliary metadata as serialized JSON, "{}" when absent.
func infostealer(m map[string]any) string {
	v, ok := m["infostealer"]
	if !ok {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
