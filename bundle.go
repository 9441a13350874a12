package main

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type Category string

const (
	Dashboards  Category = "dashboards"
	Analyses    Category = "analyses"
	DataSets    Category = "datasets"
	DataSources Category = "datasources"
	Groups      Category = "groups"
	Namespaces  Category = "namespaces"
	Templates   Category = "templates"
	Themes      Category = "themes"
)

// deployOrder puts every category after the ones it depends on.
var deployOrder = []Category{Groups, DataSources, DataSets, Analyses, Dashboards}

var catalogOrder = []Category{Themes, Namespaces, Templates, Dashboards, Analyses, DataSets, DataSources, Groups}

var assetTypes = map[string]Category{
	"dashboard":  Dashboards,
	"analysis":   Analyses,
	"dataset":    DataSets,
	"datasource": DataSources,
	"group":      Groups,
	"namespace":  Namespaces,
	"template":   Templates,
	"theme":      Themes,
}

// parseAssetType maps a CLI selector onto categories. "all" expands to the
// deployable categories in dependency order, or to every listable category
// when catalog is set.
func parseAssetType(assetType string, catalog bool) ([]Category, error) {
	if assetType == "" || assetType == "all" {
		if catalog {
			return catalogOrder, nil
		}
		return deployOrder, nil
	}

	c, found := assetTypes[strings.ToLower(assetType)]
	if !found {
		return nil, errors.Errorf("unknown asset type %q", assetType)
	}
	if !catalog && !isDeployable(c) {
		return nil, errors.Errorf("asset type %q can only be listed", assetType)
	}
	return []Category{c}, nil
}

func isDeployable(c Category) bool {
	for _, d := range deployOrder {
		if d == c {
			return true
		}
	}
	return false
}

// Record is one asset as captured from the control plane.
type Record map[string]any

func (r Record) str(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r Record) strip(keys ...string) {
	for _, k := range keys {
		delete(r, k)
	}
}

func (r Record) pop(key string) (any, bool) {
	v, found := r[key]
	delete(r, key)
	return v, found
}

func (r Record) clone() Record {
	return Record(deepCopy(map[string]any(r)).(map[string]any))
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case Record:
		return deepCopy(map[string]any(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = deepCopy(e)
		}
		return s
	default:
		return v
	}
}

// Bundle maps a category to its assets keyed by identifier.
type Bundle map[Category]map[string]Record

func newBundle() Bundle {
	b := Bundle{}
	for _, c := range catalogOrder {
		b[c] = map[string]Record{}
	}
	return b
}

func (b Bundle) get(c Category, id string) (Record, bool) {
	r, found := b[c][id]
	return r, found
}

func (b Bundle) put(c Category, id string, r Record) {
	if b[c] == nil {
		b[c] = map[string]Record{}
	}
	b[c][id] = r
}

func (b Bundle) ids(c Category) []string {
	ids := make([]string, 0, len(b[c]))
	for id := range b[c] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// toRecord captures an SDK value as a Record, dropping null members.
func toRecord(v any) (Record, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}

	m, ok := generic.(map[string]any)
	if !ok {
		return nil, errors.Errorf("expected an object, got %T", generic)
	}
	return Record(m), nil
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding sdk value")
	}

	var generic any
	if err := decodeJSON(b, &generic); err != nil {
		return nil, err
	}
	return pruneNulls(generic), nil
}

// decodeInto fills an SDK input struct from a record.
func decodeInto(r Record, out any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return errors.Wrapf(err, "decoding record into %T", out)
	}
	return nil
}

func pruneNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			if e == nil {
				delete(t, k)
				continue
			}
			t[k] = pruneNulls(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = pruneNulls(e)
		}
		return t
	default:
		return v
	}
}

// decodeJSON keeps numbers verbatim so re-encoding is lossless.
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(err, "decoding json")
	}
	return nil
}

func encodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "encoding json")
	}
	if !indent {
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}
	return buf.Bytes(), nil
}

func decodeBundle(data []byte) (Bundle, error) {
	b := newBundle()
	if len(bytes.TrimSpace(data)) == 0 {
		return b, nil
	}

	var raw map[Category]map[string]Record
	if err := decodeJSON(data, &raw); err != nil {
		return nil, errors.Wrap(err, "malformed asset bundle")
	}
	for c, assets := range raw {
		for id, r := range assets {
			b.put(c, id, r)
		}
	}
	return b, nil
}

func arnResourceID(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
