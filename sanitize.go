package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	quicksightArn      = regexp.MustCompile(`(?i)\barn:(aws[a-z-]*):quicksight:([^:"\s]*):([^:"\s]*):`)
	quicksightResource = regexp.MustCompile(`(?i)^arn:aws[a-z-]*:quicksight:[^:]*:[^:]*:([a-z]+)/(.+)$`)

	// amazon_security_lake_glue_db_us_east_1
	// amazon_security_lake_table_us_east_1_vpc_flow
	rollupName = regexp.MustCompile(`(?i)(amazon_security_lake_(?:glue_db|table)_)([a-z]{2}(?:_[a-z]+)+_\d+)`)

	affixSeparators = regexp.MustCompile(`[\s/]+`)
)

var resourceTypes = map[string]Category{
	"dashboard":  Dashboards,
	"analysis":   Analyses,
	"dataset":    DataSets,
	"datasource": DataSources,
	"group":      Groups,
}

// Sanitizer makes a bundle deployable into a destination account and region.
type Sanitizer struct {
	account   string
	region    string
	rollup    string
	principal string
	groups    []string
	prefix    string
	suffix    string
}

func newSanitizer(args *Args) *Sanitizer {
	rollup := args.slRegion
	if rollup == "" {
		rollup = args.region
	}

	return &Sanitizer{
		account:   args.account,
		region:    args.region,
		rollup:    strings.ReplaceAll(rollup, "-", "_"),
		principal: args.principal,
		groups:    args.groups,
		prefix:    cleanAffix(args.prefix),
		suffix:    cleanAffix(args.suffix),
	}
}

func cleanAffix(a string) string {
	return affixSeparators.ReplaceAllString(strings.TrimSpace(a), "-")
}

func (s *Sanitizer) sanitize(b Bundle) (Bundle, error) {
	slog.Info("sanitize", "step", "rewriting arns and security lake names", "account", s.account, "region", s.region, "rollup", s.rollup)
	for _, assets := range b {
		for _, r := range assets {
			walkStrings(map[string]any(r), s.rewriteText)
		}
	}

	slog.Info("sanitize", "step", "removing transient fields")
	for c, kind := range kinds {
		for _, r := range b[c] {
			r.strip(kind.transientFields()...)
			if c == DataSets {
				stripScheduleArns(r)
			}
		}
	}

	if s.prefix != "" || s.suffix != "" {
		slog.Info("sanitize", "step", "applying prefix and suffix", "prefix", s.prefix, "suffix", s.suffix)
		if err := s.affix(b); err != nil {
			return nil, err
		}
	}

	slog.Info("sanitize", "step", "rebuilding permissions", "principal", s.principal)
	s.rebuildPermissions(b)
	return b, nil
}

func (s *Sanitizer) rewriteText(text string) (string, bool) {
	out := quicksightArn.ReplaceAllStringFunc(text, s.rewriteArn)
	if s.rollup != "" {
		out = rollupName.ReplaceAllStringFunc(out, s.rewriteRollup)
	}
	return out, out != text
}

func (s *Sanitizer) rewriteArn(match string) string {
	m := quicksightArn.FindStringSubmatch(match)
	region, account := m[2], m[3]
	if s.region != "" {
		region = s.region
	}
	if s.account != "" {
		account = s.account
	}
	return "arn:" + m[1] + ":quicksight:" + region + ":" + account + ":"
}

func (s *Sanitizer) rewriteRollup(match string) string {
	m := rollupName.FindStringSubmatch(match)
	return m[1] + s.rollup
}

func stripScheduleArns(r Record) {
	schedules, ok := r["RefreshSchedules"].([]any)
	if !ok {
		return
	}
	for _, sched := range schedules {
		if m, ok := sched.(map[string]any); ok {
			delete(m, "Arn")
		}
	}
}

func (s *Sanitizer) encapsulate(v string) string {
	if s.prefix != "" && !strings.HasPrefix(v, s.prefix+"-") {
		v = s.prefix + "-" + v
	}
	if s.suffix != "" && !strings.HasSuffix(v, "-"+s.suffix) {
		v = v + "-" + s.suffix
	}
	return v
}

// affix renames identifiers and names, then follows every ARN that points at
// a renamed identifier. Two identifiers that would end up with the same name
// are refused before anything is renamed.
func (s *Sanitizer) affix(b Bundle) error {
	renamed := map[Category]map[string]string{}
	for c := range kinds {
		renamed[c] = map[string]string{}
		targets := map[string]string{}
		for _, id := range b.ids(c) {
			newID := s.encapsulate(id)
			if other, clash := targets[newID]; clash {
				return errors.Errorf("%s %s and %s would both be named %s", c, other, id, newID)
			}
			targets[newID] = id
			if newID != id {
				renamed[c][id] = newID
			}
		}
	}

	for c, kind := range kinds {
		for _, id := range b.ids(c) {
			r := b[c][id]
			for _, f := range []string{kind.idField(), kind.nameField()} {
				if v := r.str(f); v != "" {
					r[f] = s.encapsulate(v)
				}
			}
			if newID, ok := renamed[c][id]; ok {
				delete(b[c], id)
				b[c][newID] = r
			}
		}
	}

	follow := func(text string) (string, bool) {
		m := quicksightResource.FindStringSubmatch(text)
		if m == nil {
			return text, false
		}
		c, found := resourceTypes[strings.ToLower(m[1])]
		if !found {
			return text, false
		}
		id := arnResourceID(text)
		newID, found := renamed[c][id]
		if !found {
			return text, false
		}
		return strings.TrimSuffix(text, id) + newID, true
	}

	for _, assets := range b {
		for _, r := range assets {
			walkStrings(map[string]any(r), follow)
		}
	}
	return nil
}

func (s *Sanitizer) rebuildPermissions(b Bundle) {
	groups := append([]string{}, s.groups...)
	for _, id := range b.ids(Groups) {
		if arn := b[Groups][id].str("Arn"); arn != "" {
			groups = append(groups, arn)
		}
	}

	for _, c := range deployOrder {
		if !hasPermissions(c) {
			continue
		}
		for _, r := range b[c] {
			delete(r, "Permissions")
			if perms := buildPermissions(c, s.principal, groups); len(perms) > 0 {
				r["Permissions"] = perms
			}
		}
	}
}

// walkStrings applies fn to every string reachable from v, including strings
// nested in JSON documents that are themselves stored as strings. Maps and
// slices are updated in place.
func walkStrings(v any, fn func(string) (string, bool)) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		changed := false
		for k, e := range t {
			if ne, ok := walkStrings(e, fn); ok {
				t[k] = ne
				changed = true
			}
		}
		return t, changed
	case []any:
		changed := false
		for i, e := range t {
			if ne, ok := walkStrings(e, fn); ok {
				t[i] = ne
				changed = true
			}
		}
		return t, changed
	case string:
		if embedded, ok := parseEmbedded(t); ok {
			ne, changed := walkStrings(embedded, fn)
			if !changed {
				return t, false
			}
			b, err := encodeJSON(ne, false)
			if err != nil {
				return t, false
			}
			return string(b), true
		}
		return fn(t)
	default:
		return v, false
	}
}

func parseEmbedded(text string) (any, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, false
	}

	var v any
	if err := decodeJSON(bytes.NewBufferString(trimmed).Bytes(), &v); err != nil {
		return nil, false
	}
	return v, true
}

func sanitizeFile(args *Args) error {
	b, err := readBundle(args.assets)
	if err != nil {
		return err
	}

	if _, err := newSanitizer(args).sanitize(b); err != nil {
		return err
	}
	if err := writeBundle(args.assets, b); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args.assets)
	return nil
}
