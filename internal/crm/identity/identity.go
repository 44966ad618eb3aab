// Package identity encodes the external entity ids a local record maps to
// into a single text field, so one column can carry every remote reference
// an integration has resolved for that record.
//
// Grammar: "<ns>:<type>:<id>" entries joined by "|", the namespace being the
// integration name, e.g. "krayin:person:123|krayin:lead:456". All in-memory
// logic works on the decoded map; encoding happens only when the field is
// written back to the store.
package identity

import (
	"sort"
	"strings"
)

// Map is the decoded form of an identity field: entity type to remote id.
type Map map[string]string

// Decode parses field into a Map, keeping only well-formed entries that
// belong to ns. Entries with the wrong segment count, a different namespace,
// or an empty type/id are dropped rather than reported; a half-corrupt field
// should not block sync for the entries that are still readable.
func Decode(ns, field string) Map {
	m := Map{}
	if field == "" {
		return m
	}
	for _, entry := range strings.Split(field, "|") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			continue
		}
		if parts[0] != ns || parts[1] == "" || parts[2] == "" {
			continue
		}
		m[parts[1]] = parts[2]
	}
	return m
}

// Encode serializes the map under ns. Types are sorted so the same map
// always produces the same field.
func (m Map) Encode(ns string) string {
	if len(m) == 0 {
		return ""
	}
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)

	entries := make([]string, 0, len(types))
	for _, t := range types {
		entries = append(entries, ns+":"+t+":"+m[t])
	}
	return strings.Join(entries, "|")
}

// Update upserts one (type, id) pair into an encoded field and returns the
// re-encoded result. Reads stay order-insensitive because Encode is
// deterministic regardless of how the field was produced.
func Update(ns, field, entityType, remoteID string) string {
	m := Decode(ns, field)
	m[entityType] = remoteID
	return m.Encode(ns)
}

// Get returns the id stored for entityType, or "" when absent.
func (m Map) Get(entityType string) string {
	return m[entityType]
}
