package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

type Catalog map[Category]map[string]any

// listCatalog lists every selected category, keyed by ARN.
func listCatalog(q *QuickSight, categories []Category, ignore bool) (Catalog, error) {
	catalog := Catalog{}
	for _, c := range categories {
		l, found := listers[c]
		if !found {
			return nil, errors.Errorf("%s cannot be listed", c)
		}

		records, err := l.list(q)
		if err != nil {
			if ignore {
				slog.Warn("list", "category", c, "code", errorCode(err), "error", err, "status", "skipped")
				continue
			}
			return nil, &assetError{Category: c, Phase: string(actionList), Cause: err}
		}
		catalog[c] = byArn(records)
	}
	return catalog, nil
}

func listAssets(q *QuickSight, args *Args) error {
	categories, err := parseAssetType(args.assetType, true)
	if err != nil {
		return err
	}

	catalog, err := listCatalog(q, categories, args.ignore)
	if err != nil {
		return err
	}

	data, err := encodeJSON(catalog, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args.catalog, data, 0o644); err != nil {
		return errors.Wrap(err, "writing catalog")
	}

	fmt.Printf("wrote %s\n", args.catalog)
	return nil
}
