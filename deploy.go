package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// scheduleDelay pushes the first run of a submitted refresh schedule past the
// moment it is accepted.
const scheduleDelay = 5 * time.Second

type assetState int

const (
	statePending assetState = iota
	stateSubmitted
	stateSucceeded
	stateFailed
)

type assetKey struct {
	category Category
	id       string
}

func (k assetKey) String() string {
	return fmt.Sprintf("%s/%s", k.category, k.id)
}

type outcome struct {
	state assetState
	arn   string
	err   error
}

// Deployer applies create, update or delete to a bundle, children before
// parents on the way up and parents before children on the way down.
type Deployer struct {
	q       *QuickSight
	args    *Args
	clock   clock.Clock
	bundle  Bundle
	results *Results
	seen    map[assetKey]*outcome
}

func newDeployer(q *QuickSight) *Deployer {
	return &Deployer{
		q:     q,
		clock: clock.New(),
		seen:  make(map[assetKey]*outcome),
	}
}

func (d *Deployer) withArgs(args *Args) *Deployer {
	d.args = args
	return d
}

func (d *Deployer) withClock(clk clock.Clock) *Deployer {
	d.clock = clk
	return d
}

func (d *Deployer) withResults(results *Results) *Deployer {
	d.results = results
	return d
}

func (d *Deployer) addBundle(b Bundle) *Deployer {
	d.bundle = b
	return d
}

func (d *Deployer) state(c Category, id string) assetState {
	if o, found := d.seen[assetKey{c, id}]; found {
		return o.state
	}
	return statePending
}

func (d *Deployer) run() (err error) {
	if d.args.action == actionDelete && !d.args.confirm {
		return errConfirmationRequired
	}
	if !d.args.action.isDeploy() {
		return errors.Errorf("%s is not a deployment action", d.args.action)
	}
	if d.results == nil {
		d.results = newResults("", d.clock)
	}
	defer func() {
		if ferr := d.results.flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	categories, err := parseAssetType(d.args.assetType, false)
	if err != nil {
		return err
	}
	if d.args.action == actionDelete {
		categories = reversed(categories)
	}

	all := d.args.assetType == "all"
	follow := d.args.follow || all

	for _, c := range categories {
		ids := d.args.ids
		if all {
			ids = d.bundle.ids(c)
		}

		for _, id := range ids {
			if _, err := d.deploy(c, id, follow); err != nil {
				if !d.args.ignore {
					return err
				}
				slog.Warn("deploy", "action", d.args.action, "category", c, "id", id, "error", err)
			}
		}
	}
	return nil
}

// deploy submits one asset, following its references first when follow is
// set, and returns the ARN the destination assigned to it.
func (d *Deployer) deploy(c Category, id string, follow bool) (string, error) {
	key := assetKey{c, id}
	if o, found := d.seen[key]; found {
		if o.state == stateSubmitted {
			return "", &assetError{Category: c, ID: id, Phase: string(d.args.action), Cause: errInFlight}
		}
		return o.arn, o.err
	}

	o := &outcome{state: stateSubmitted}
	d.seen[key] = o

	kind, found := kinds[c]
	if !found {
		return "", d.fail(o, c, id, errors.Errorf("%s cannot be deployed", c))
	}

	record, found := d.bundle.get(c, id)
	if d.args.action == actionDelete {
		return d.remove(o, kind, id, record, follow)
	}
	if !found {
		return "", d.fail(o, c, id, &missingAssetError{Category: c, ID: id})
	}

	r := record.clone()
	if follow {
		for _, ref := range kind.references(r) {
			arn, err := d.deploy(ref.category, ref.id, follow)
			if err != nil {
				if isMissingAsset(err) && d.args.ignore {
					slog.Warn("deploy", "category", c, "id", id, "reference", assetKey{ref.category, ref.id}, "status", "left unchanged")
					continue
				}
				return "", d.fail(o, c, id, &dependencyError{Child: assetKey{ref.category, ref.id}, Cause: err})
			}
			if arn != "" {
				ref.set(arn)
			}
		}
	}

	var schedules []any
	if c == DataSets {
		if v, ok := r.pop("RefreshSchedules"); ok {
			schedules, _ = v.([]any)
		}
	}

	d.prepare(kind, id, r)

	slog.Info("deploy", "action", d.args.action, "category", c, "id", id, "status", "submitting")
	var out Record
	var err error
	switch d.args.action {
	case actionCreate:
		out, err = kind.create(d.q, r)
	case actionUpdate:
		out, err = kind.update(d.q, r)
	}
	if err != nil {
		return "", d.fail(o, c, id, err)
	}

	if len(schedules) > 0 {
		if err := d.submitSchedules(id, schedules); err != nil {
			return "", d.fail(o, c, id, err)
		}
	}

	return d.succeed(o, c, id, out), nil
}

// prepare turns a bundle record into a submission body.
func (d *Deployer) prepare(kind assetKind, id string, r Record) {
	r.strip(kind.transientFields()...)
	r.strip("Arn")

	if d.args.action == actionUpdate {
		r.strip("Permissions")
		if kind.category() == DataSources {
			r.strip("Type")
		}
	}

	if r.str(kind.idField()) == "" {
		r[kind.idField()] = id
	}
}

func (d *Deployer) remove(o *outcome, kind assetKind, id string, record Record, follow bool) (string, error) {
	c := kind.category()

	slog.Info("deploy", "action", d.args.action, "category", c, "id", id, "status", "submitting")
	out, err := kind.remove(d.q, id)
	if err != nil {
		return "", d.fail(o, c, id, err)
	}
	arn := d.succeed(o, c, id, out)

	if !follow || record == nil {
		return arn, nil
	}
	for _, ref := range kind.references(record) {
		if _, err := d.deploy(ref.category, ref.id, follow); err != nil {
			if d.args.ignore {
				slog.Warn("deploy", "action", d.args.action, "category", ref.category, "id", ref.id, "error", err)
				continue
			}
			return arn, err
		}
	}
	return arn, nil
}

func (d *Deployer) submitSchedules(dataSetID string, schedules []any) error {
	start := d.clock.Now().UTC().Add(scheduleDelay).Truncate(time.Second)

	for _, s := range schedules {
		schedule, ok := s.(map[string]any)
		if !ok {
			continue
		}

		out, err := d.q.putRefreshSchedule(d.args.action, dataSetID, schedule, start)
		if err != nil {
			return errors.Wrapf(err, "refresh schedule %v", schedule["ScheduleId"])
		}
		slog.Info("deploy", "action", d.args.action, "dataset", dataSetID, "schedule", schedule["ScheduleId"], "start", start, "arn", resultArn(out))
	}
	return nil
}

func (d *Deployer) succeed(o *outcome, c Category, id string, out Record) string {
	o.state = stateSucceeded
	o.arn = resultArn(out)
	d.results.record(d.args.action, c, id, out, nil)

	slog.Info("deploy", "action", d.args.action, "category", c, "id", id, "status", statusSucceeded, "arn", o.arn)
	return o.arn
}

func (d *Deployer) fail(o *outcome, c Category, id string, cause error) error {
	err := &assetError{Category: c, ID: id, Phase: string(d.args.action), Cause: cause}
	o.state = stateFailed
	o.err = err
	d.results.record(d.args.action, c, id, nil, err)

	slog.Error("deploy", "action", d.args.action, "category", c, "id", id, "code", errorCode(cause), "error", cause)
	return err
}

func reversed(categories []Category) []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[len(categories)-1-i] = c
	}
	return out
}

func deployAssets(q *QuickSight, args *Args) error {
	b, err := readBundle(args.assets)
	if err != nil {
		return err
	}

	clk := clock.New()
	return newDeployer(q).
		withArgs(args).
		withClock(clk).
		withResults(newResults(args.output, clk)).
		addBundle(b).
		run()
}
