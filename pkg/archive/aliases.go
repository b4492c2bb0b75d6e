package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field aliases per export generation. The first present, non-null alias wins.
var (
	rootFields = aliasTable{
		"zaps":    {"zaps", "workflows"},
		"version": {"version", "schema_version"},
	}
	zapFields = aliasTable{
		"id":     {"id", "zap_id"},
		"title":  {"title", "name"},
		"status": {"status", "state"},
		"steps":  {"steps", "actions", "nodes"},
	}
	stepFields = aliasTable{
		"id":     {"id", "node_id"},
		"parent": {"parent_id", "parent", "parentId"},
		"type":   {"type_of", "type"},
		"app":    {"selected_api", "app", "api"},
		"action": {"action", "action_key", "event"},
		"title":  {"title", "name", "label"},
		"paused": {"paused"},
	}
)

// generations maps the steps container alias onto the generation it belongs to
var generations = map[string]string{
	"steps":   "steps",
	"actions": "steps",
	"nodes":   "nodes",
}

type aliasTable map[string][]string

type object map[string]json.RawMessage

func (t aliasTable) lookup(obj object, field string) (json.RawMessage, string, bool) {
	for _, alias := range t[field] {
		raw, ok := obj[alias]
		if !ok || isNull(raw) {
			continue
		}
		return raw, alias, true
	}
	return nil, "", false
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decodeID accepts numeric or string identifiers and returns their canonical text
func decodeID(raw json.RawMessage) (string, bool, error) {
	if isNull(raw) {
		return "", false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}
	switch id := v.(type) {
	case json.Number:
		return id.String(), true, nil
	case string:
		id = strings.TrimSpace(id)
		return id, id != "", nil
	}
	return "", false, fmt.Errorf("unsupported id value %s", string(raw))
}

func decodeString(raw json.RawMessage) string {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return "false"
	}
	return ""
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	return strings.EqualFold(decodeString(raw), "true")
}

type keyedRaw struct {
	key string
	raw json.RawMessage
}

// orderedMembers decodes a JSON object keeping the declared key order
func orderedMembers(raw json.RawMessage) ([]keyedRaw, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object")
	}

	var members []keyedRaw
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("member %q: %w", key, err)
		}
		members = append(members, keyedRaw{key: key, raw: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// elements returns the entries of an array, or the members of an object in order
func elements(raw json.RawMessage) ([]keyedRaw, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]keyedRaw, len(items))
		for i, item := range items {
			out[i] = keyedRaw{raw: item}
		}
		return out, nil
	case '{':
		return orderedMembers(trimmed)
	}
	return nil, fmt.Errorf("expected array or object")
}
