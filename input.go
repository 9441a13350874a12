package main

import (
	"strings"

	"github.com/urfave/cli/v2"
)

type Action string

const (
	actionList     Action = "list"
	actionDescribe Action = "describe"
	actionSanitize Action = "sanitize"
	actionCreate   Action = "create"
	actionUpdate   Action = "update"
	actionDelete   Action = "delete"
	actionStage    Action = "stage"
)

func (a Action) isDeploy() bool {
	return a == actionCreate || a == actionUpdate || a == actionDelete
}

type Args struct {
	action     Action
	assetType  string
	ids        []string
	account    string
	region     string
	slRegion   string
	principal  string
	groups     []string
	groupNames []string
	namespace  string
	prefix     string
	suffix     string
	follow     bool
	confirm    bool
	preopen    bool
	ignore     bool
	verbose    bool
	assets     string
	catalog    string
	output     string
	profile    string
	templates  string
	staging    string
	replace    bool
}

// NewArgsGetter reads the command line of an action. Values come from the
// flags first, then from the settings file, then from the flag defaults.
func NewArgsGetter(c *cli.Context, action Action) (*Args, error) {
	settings := &Settings{}
	if path := c.String("config"); path != "" {
		loaded, err := newSettingsFinder().locateIn(path).load()
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	args := &Args{
		action:     action,
		account:    pickString(c, "account", settings.Account),
		region:     pickString(c, "region", settings.Region),
		slRegion:   pickString(c, "slregion", settings.SLRegion),
		principal:  pickString(c, "principal", settings.Principal),
		groups:     pickSlice(c, "group", settings.Groups),
		groupNames: pickSlice(c, "group-name", settings.GroupNames),
		namespace:  pickString(c, "namespace", settings.Namespace),
		prefix:     pickString(c, "prefix", settings.Prefix),
		suffix:     pickString(c, "suffix", settings.Suffix),
		follow:     !pickBool(c, "nofollow", settings.NoFollow),
		confirm:    c.Bool("confirm"),
		preopen:    pickBool(c, "preopen", settings.Preopen),
		ignore:     pickBool(c, "ignore", settings.Ignore),
		verbose:    pickBool(c, "verbose", settings.Verbose),
		assets:     pickString(c, "assets", settings.Assets),
		catalog:    pickString(c, "catalog", settings.Catalog),
		output:     pickString(c, "output", settings.Output),
		profile:    pickString(c, "profile", settings.Profile),
	}

	if action == actionStage {
		args.templates = c.String("templates")
		args.staging = c.String("staging")
		args.replace = c.Bool("replace")
		return args, nil
	}

	if c.NArg() > 0 {
		args.assetType = strings.ToLower(c.Args().First())
		args.ids = c.Args().Tail()
	}
	if args.assetType == "" {
		args.assetType = "all"
	}
	if args.assetType == "all" {
		args.follow = true
	}

	return args, args.validate()
}

// validate rejects command lines that must never reach the control plane.
func (a *Args) validate() error {
	switch a.action {
	case actionList, actionSanitize:
		return nil
	case actionDescribe:
		if a.assetType == "all" {
			return errMissingIDs
		}
	case actionDelete:
		if !a.confirm {
			return errConfirmationRequired
		}
	}

	if _, err := parseAssetType(a.assetType, false); err != nil {
		return err
	}
	if a.assetType != "all" && len(a.ids) == 0 {
		return errMissingIDs
	}
	return nil
}

func pickString(c *cli.Context, name, fromFile string) string {
	if c.IsSet(name) || fromFile == "" {
		return c.String(name)
	}
	return fromFile
}

func pickSlice(c *cli.Context, name string, fromFile []string) []string {
	if c.IsSet(name) || len(fromFile) == 0 {
		return c.StringSlice(name)
	}
	return fromFile
}

func pickBool(c *cli.Context, name string, fromFile *bool) bool {
	if c.IsSet(name) || fromFile == nil {
		return c.Bool(name)
	}
	return *fromFile
}
