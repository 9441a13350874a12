package main

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

const exitHardFailure = 255

var (
	errConfirmationRequired = errors.New("asset deletion requires confirmation with --confirm; verify that you are deploying into the destination account")
	errMissingIDs           = errors.New("you must provide asset IDs")
	errInFlight             = errors.New("asset submission is already in flight")
	errDependencyFailed     = errors.New("a dependency failed to deploy")
)

// assetError ties a failure to the asset and pipeline phase it came from.
type assetError struct {
	Category Category
	ID       string
	Phase    string
	Cause    error
}

func (e *assetError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Phase, e.Category, e.ID, e.Cause)
}

func (e *assetError) Unwrap() error {
	return e.Cause
}

// dependencyError fails a parent because of one of its children. It matches
// errDependencyFailed as well as the child's own failure.
type dependencyError struct {
	Child assetKey
	Cause error
}

func (e *dependencyError) Error() string {
	return fmt.Sprintf("dependency %s: %v", e.Child, e.Cause)
}

func (e *dependencyError) Unwrap() []error {
	return []error{errDependencyFailed, e.Cause}
}

// missingAssetError marks a reference to an asset absent from the bundle.
type missingAssetError struct {
	Category Category
	ID       string
}

func (e *missingAssetError) Error() string {
	return fmt.Sprintf("%s %s is not in the asset bundle", e.Category, e.ID)
}

func isMissingAsset(err error) bool {
	var missing *missingAssetError
	return errors.As(err, &missing)
}

// errorCode extracts the service error code from either SDK generation.
func errorCode(err error) string {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		return awsErr.Code()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
