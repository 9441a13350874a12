package main

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// callerAccount resolves the account of the active credentials.
func callerAccount(ctx context.Context, s stsAPI) (string, error) {
	slog.Info("getting account info", "api", "sts:GetCallerIdentity")

	resp, err := s.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", errors.Wrapf(err, "cannot call sts:GetCallerIdentity (%s)", apiErr.ErrorCode())
		}
		return "", errors.Wrap(err, "cannot call sts:GetCallerIdentity")
	}

	account := aws.ToString(resp.Account)
	if account == "" {
		return "", errors.New("sts:GetCallerIdentity returned no account")
	}
	return account, nil
}
