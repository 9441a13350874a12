package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(connect).RunContext(ctx, os.Args); err != nil {
		slog.Error("qstool", "error", err)
		os.Exit(exitHardFailure)
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// connect builds the destination clients from the profile and region of a
// command line.
func connect(args *Args) *ResourceConfig {
	aws := mustInitConfig(
		withRegion(args.region),
		withProfile(args.profile),
	)

	return aws.stablishClientWith(
		quicksightService(aws.sess),
		stsService(aws.cfg),
	)
}

func newApp(connectFn func(*Args) *ResourceConfig) *cli.App {
	command := func(action Action, usage, argsUsage string, flags ...cli.Flag) *cli.Command {
		return &cli.Command{
			Name:      string(action),
			Usage:     usage,
			ArgsUsage: argsUsage,
			Flags:     flags,
			Action: func(c *cli.Context) error {
				args, err := NewArgsGetter(c, action)
				if err != nil {
					return cli.Exit(err.Error(), exitHardFailure)
				}
				setupLogger(args.verbose)

				if err := runAction(c.Context, args, connectFn); err != nil {
					return cli.Exit(err.Error(), exitHardFailure)
				}
				return nil
			},
		}
	}

	return &cli.App{
		Name:  "qstool",
		Usage: "Move QuickSight dashboards, analyses, datasets, datasources and groups between accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "destination AWS account id, resolved through STS when empty"},
			&cli.StringFlag{Name: "region", Usage: "destination AWS region"},
			&cli.StringFlag{Name: "slregion", Aliases: []string{"asl"}, Usage: "Security Lake roll-up region, defaults to --region"},
			&cli.StringFlag{Name: "principal", Usage: "ARN granted read-write on every sanitized asset"},
			&cli.StringSliceFlag{Name: "group", Usage: "group ARN granted read-only on every sanitized asset"},
			&cli.StringSliceFlag{Name: "group-name", Usage: "only describe referenced groups with this name"},
			&cli.StringFlag{Name: "namespace", Value: defaultNamespace, Usage: "QuickSight namespace of groups"},
			&cli.StringFlag{Name: "prefix", Usage: "prefix added to asset ids and names"},
			&cli.StringFlag{Name: "suffix", Usage: "suffix added to asset ids and names"},
			&cli.BoolFlag{Name: "nofollow", Aliases: []string{"f"}, Usage: "do not follow dependencies"},
			&cli.BoolFlag{Name: "confirm", Aliases: []string{"C"}, Usage: "confirm asset deletion"},
			&cli.BoolFlag{Name: "preopen", Aliases: []string{"p"}, Usage: "merge described assets into the existing bundle"},
			&cli.BoolFlag{Name: "ignore", Aliases: []string{"i"}, Usage: "report failures and carry on"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every operation"},
			&cli.StringFlag{Name: "assets", Value: "assets.json", Usage: "asset bundle file"},
			&cli.StringFlag{Name: "catalog", Value: "catalog.json", Usage: "catalog file written by list"},
			&cli.StringFlag{Name: "output", Value: "output.json", Usage: "results log, one JSON line per submission"},
			&cli.StringFlag{Name: "profile", Usage: "AWS shared config profile"},
			&cli.StringFlag{Name: "config", Usage: "YAML settings file"},
		},
		Commands: []*cli.Command{
			command(actionList, "list asset summaries into the catalog", "[type]"),
			command(actionDescribe, "describe assets and their dependencies into the bundle", "<type> <ids...>"),
			command(actionSanitize, "retarget the bundle to the destination account and region", ""),
			command(actionCreate, "create assets of the bundle", "<type|all> [ids...]"),
			command(actionUpdate, "update assets of the bundle", "<type|all> [ids...]"),
			command(actionDelete, "delete assets of the bundle, requires --confirm", "<type|all> [ids...]"),
			command(actionStage, "sanitize and deploy every template of a directory", "",
				&cli.StringFlag{Name: "templates", Value: "asset-templates", Usage: "directory of bundle templates"},
				&cli.StringFlag{Name: "staging", Value: "qs-lake-staging", Usage: "directory the sanitized copies are written to"},
				&cli.BoolFlag{Name: "replace", Value: true, Usage: "delete the staged assets before creating them"},
			),
		},
	}
}

func runAction(ctx context.Context, args *Args, connectFn func(*Args) *ResourceConfig) error {
	if args.action == actionSanitize {
		return sanitizeFile(args)
	}

	svc := connectFn(args)
	if args.account == "" {
		account, err := callerAccount(ctx, svc.sts)
		if err != nil {
			return err
		}
		args.account = account
	}

	if args.action == actionStage {
		return stage(ctx, args, svc)
	}
	return dispatch(ctx, args, svc)
}

func dispatch(ctx context.Context, args *Args, svc *ResourceConfig) error {
	q := newQuickSight(ctx, svc.quicksight, args.account, args.namespace)

	slog.Info("qstool", "action", args.action, "type", args.assetType, "ids", args.ids, "account", args.account, "region", args.region)
	switch args.action {
	case actionList:
		return listAssets(q, args)
	case actionDescribe:
		return describeAssets(q, args)
	default:
		return deployAssets(q, args)
	}
}
