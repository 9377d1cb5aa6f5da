package domain

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.trai.ch/zerr"
)

// Manifest is a package manifest held as the document it was read from.
// Edits replace single values in place, so key order and formatting survive a rewrite.
type Manifest struct {
	data []byte
}

// ManifestEntry is one member of an object of strings, such as a dependency section.
type ManifestEntry struct {
	Key   string
	Value string
}

// ParseManifest checks that data is a single JSON object.
func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, zerr.Wrap(ErrInvalidManifest, "malformed JSON")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, zerr.Wrap(ErrInvalidManifest, "expected a JSON object")
	}
	return &Manifest{data: bytes.Clone(data)}, nil
}

// Keys returns the top-level member names in document order.
func (m *Manifest) Keys() []string {
	var keys []string
	gjson.ParseBytes(m.data).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// GetString returns the string at path.
// The boolean is false when nothing is stored there; a present non-string value is an error.
func (m *Manifest) GetString(path ...string) (string, bool, error) {
	r := gjson.GetBytes(m.data, manifestPath(path))
	if !r.Exists() {
		return "", false, nil
	}
	if r.Type != gjson.String {
		return "", true, invalidAt(path, "expected a string")
	}
	return r.Str, true, nil
}

// GetStrings returns the array of strings at path.
func (m *Manifest) GetStrings(path ...string) ([]string, bool, error) {
	r := gjson.GetBytes(m.data, manifestPath(path))
	if !r.Exists() {
		return nil, false, nil
	}
	if !r.IsArray() {
		return nil, true, invalidAt(path, "expected an array of strings")
	}

	items := r.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, true, invalidAt(path, "expected an array of strings")
		}
		out = append(out, item.Str)
	}
	return out, true, nil
}

// StringSection returns the members of the object at path in document order.
// Every member must hold a string.
func (m *Manifest) StringSection(path ...string) ([]ManifestEntry, bool, error) {
	r := gjson.GetBytes(m.data, manifestPath(path))
	if !r.Exists() {
		return nil, false, nil
	}
	if !r.IsObject() {
		return nil, true, invalidAt(path, "expected an object")
	}

	var (
		entries []ManifestEntry
		bad     string
	)
	r.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			bad = key.String()
			return false
		}
		entries = append(entries, ManifestEntry{Key: key.String(), Value: value.Str})
		return true
	})
	if bad != "" {
		return nil, true, zerr.With(invalidAt(path, "expected a map of strings"), "entry", bad)
	}
	return entries, true, nil
}

// SetString stores value at path. An existing member keeps its position;
// a new one is appended to its object.
func (m *Manifest) SetString(value string, path ...string) error {
	data, err := sjson.SetBytes(m.data, manifestPath(path), value)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to update manifest"), "key", strings.Join(path, "."))
	}
	m.data = data
	return nil
}

// Encode returns the document, ending with a newline the way package managers write it.
func (m *Manifest) Encode() []byte {
	out := bytes.Clone(m.data)
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return out
}

// manifestPath joins keys into a gjson path. Package names carry '@', '/' and '.',
// which are path syntax unless escaped.
func manifestPath(keys []string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = gjson.Escape(k)
	}
	return strings.Join(escaped, ".")
}

func invalidAt(path []string, msg string) error {
	return zerr.With(zerr.Wrap(ErrInvalidManifest, msg), "key", strings.Join(path, "."))
}
