package main

import (
	"context"

	awsv1 "github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/quicksight"
	"github.com/aws/aws-sdk-go/service/quicksight/quicksightiface"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// CloudConfig carries both SDK generations bound to the same profile and
// region. QuickSight goes through the v1 client because its models are plain
// structs that survive a JSON round trip, which is how bundle records are
// resubmitted.
type CloudConfig struct {
	cfg     aws.Config
	sess    *session.Session
	region  string
	profile string
}

type Option func(*CloudConfig)

func withRegion(region string) Option {
	return func(cc *CloudConfig) {
		cc.region = region
	}
}

func withProfile(profile string) Option {
	return func(cc *CloudConfig) {
		cc.profile = profile
	}
}

func mustInitConfig(opts ...Option) *CloudConfig {
	defaultOpts := &CloudConfig{
		cfg:     aws.Config{},
		region:  "",
		profile: "",
	}

	for _, opt := range opts {
		opt(defaultOpts)
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if defaultOpts.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(defaultOpts.profile))
	}
	if defaultOpts.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(defaultOpts.region))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		panic(err)
	}

	sessOpts := session.Options{
		Profile:           defaultOpts.profile,
		SharedConfigState: session.SharedConfigEnable,
	}
	if defaultOpts.region != "" {
		sessOpts.Config.Region = awsv1.String(defaultOpts.region)
	}

	defaultOpts.cfg = cfg
	defaultOpts.sess = session.Must(session.NewSessionWithOptions(sessOpts))
	return defaultOpts
}

func (c *CloudConfig) stablishClientWith(opts ...ResourceOpt) *ResourceConfig {
	o := &ResourceConfig{}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

type ResourceConfig struct {
	quicksight quicksightiface.QuickSightAPI
	sts        stsAPI
}

type ResourceOpt func(*ResourceConfig)

// quicksightService stays on the v1 SDK on purpose. The v2 QuickSight models
// express PhysicalTable and the dashboard definition as union interfaces,
// which cannot be decoded from a bundle record with encoding/json.
func quicksightService(sess *session.Session) ResourceOpt {
	return func(rc *ResourceConfig) {
		rc.quicksight = quicksight.New(sess)
	}
}

func stsService(cfg aws.Config) ResourceOpt {
	return func(rc *ResourceConfig) {
		rc.sts = sts.NewFromConfig(cfg)
	}
}
