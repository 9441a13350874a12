package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// stage deploys every bundle template of a directory. Each template is
// copied into the staging directory and sanitized there, so the templates
// themselves are never modified. Every staged bundle is deleted before any is
// created, so assets shared between templates outlive the delete pass.
func stage(ctx context.Context, args *Args, svc *ResourceConfig) error {
	templates, err := filepath.Glob(filepath.Join(args.templates, "*.json"))
	if err != nil {
		return errors.Wrap(err, "listing templates")
	}
	if len(templates) == 0 {
		return errors.Errorf("no templates in %s", args.templates)
	}
	sort.Strings(templates)

	if err := os.MkdirAll(args.staging, 0o755); err != nil {
		return errors.Wrap(err, "creating staging directory")
	}

	staged := make([]string, 0, len(templates))
	for _, template := range templates {
		path := filepath.Join(args.staging, filepath.Base(template))
		slog.Info("stage", "template", template, "staged", path)

		if err := stageTemplate(args, template, path); err != nil {
			return err
		}
		staged = append(staged, path)
	}

	passes := []Action{actionCreate}
	if args.replace {
		passes = []Action{actionDelete, actionCreate}
	}
	for _, action := range passes {
		for _, path := range staged {
			if err := deployStaged(ctx, args, svc, path, action); err != nil {
				return err
			}
		}
	}
	return nil
}

// stageTemplate refreshes the staged copy from its template and sanitizes it.
func stageTemplate(args *Args, template, staged string) error {
	if err := copyFile(template, staged); err != nil {
		return err
	}

	step := *args
	step.assets = staged
	step.action = actionSanitize
	return sanitizeFile(&step)
}

// deployStaged applies action to all assets of a staged bundle in ignore mode.
func deployStaged(ctx context.Context, args *Args, svc *ResourceConfig, staged string, action Action) error {
	step := *args
	step.assets = staged
	step.action = action
	step.assetType = "all"
	step.ids = nil
	step.follow = true
	step.ignore = true
	step.confirm = action == actionDelete
	return dispatch(ctx, &step, svc)
}
