package main

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// describeOrder puts every category before the ones it references, so one
// pass collects the whole closure.
var describeOrder = []Category{Dashboards, Analyses, DataSets, DataSources, Groups}

var groupPrincipal = regexp.MustCompile(`^arn:[^:]+:quicksight:[^:]*:[^:]*:group/([^/]+)/(.+)$`)

// Describer captures full definitions starting from root identifiers.
type Describer struct {
	q          *QuickSight
	follow     bool
	ignore     bool
	groupNames map[string]bool
}

func newDescriber(q *QuickSight, args *Args) *Describer {
	names := make(map[string]bool, len(args.groupNames))
	for _, n := range args.groupNames {
		names[strings.ToLower(n)] = true
	}

	return &Describer{
		q:          q,
		follow:     args.follow,
		ignore:     args.ignore,
		groupNames: names,
	}
}

func (d *Describer) describe(b Bundle, root Category, ids []string) error {
	pending := map[Category][]string{root: ids}
	seen := map[assetKey]bool{}

	for _, c := range describeOrder {
		kind := kinds[c]
		for i := 0; i < len(pending[c]); i++ {
			id := pending[c][i]
			key := assetKey{c, id}
			if seen[key] {
				continue
			}
			seen[key] = true

			slog.Info("describe", "category", c, "id", id)
			r, err := kind.describe(d.q, id)
			if err != nil {
				if d.ignore {
					slog.Warn("describe", "category", c, "id", id, "code", errorCode(err), "error", err, "status", "skipped")
					continue
				}
				return &assetError{Category: c, ID: id, Phase: string(actionDescribe), Cause: err}
			}
			b.put(c, id, r)

			if !d.follow {
				continue
			}
			for _, ref := range kind.references(r) {
				pending[ref.category] = append(pending[ref.category], ref.id)
			}
			if c != Groups {
				pending[Groups] = append(pending[Groups], d.groups(r)...)
			}
		}
	}
	return nil
}

// groups returns the names of the groups in the permissions of r that live
// in the configured namespace and pass the name filter.
func (d *Describer) groups(r Record) []string {
	perms, ok := r["Permissions"].([]any)
	if !ok {
		return nil
	}

	var names []string
	for _, p := range perms {
		perm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		principal, _ := perm["Principal"].(string)
		m := groupPrincipal.FindStringSubmatch(principal)
		if m == nil || m[1] != d.q.namespace {
			continue
		}
		if len(d.groupNames) > 0 && !d.groupNames[strings.ToLower(m[2])] {
			continue
		}
		names = append(names, m[2])
	}
	return names
}

func describeAssets(q *QuickSight, args *Args) error {
	categories, err := parseAssetType(args.assetType, false)
	if err != nil {
		return err
	}
	if len(categories) != 1 || len(args.ids) == 0 {
		return errMissingIDs
	}

	b := newBundle()
	if args.preopen {
		if b, err = readBundleOrEmpty(args.assets); err != nil {
			return err
		}
	}

	if err := newDescriber(q, args).describe(b, categories[0], args.ids); err != nil {
		return err
	}

	if err := writeBundle(args.assets, b); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args.assets)
	return nil
}
