package memoize

import (
	"fmt"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
)

// ErrEmptyStore is returned when an eviction is attempted on a store holding
// no entries. It is never swallowed: eviction only runs once the store has
// been counted at or above its bound, so an empty store at that point means
// the bookkeeping and the bucket disagree.
var ErrEmptyStore = platformerrors.New(platformerrors.CodeNotFound, "cache store is empty")

// wrapError wraps an error with context, classifying it as a platform error type.
// It preserves the original error chain for errors.Is/errors.As compatibility.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	classified := classifyError(err)

	return fmt.Errorf("%s: %w", context, classified)
}

// classifyError maps MinIO error responses to platform error types. Errors
// without a recognized response code are classified as network failures,
// since everything this package does is a remote call.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	errResp := minio.ToErrorResponse(err)

	switch errResp.Code {
	case "NoSuchKey":
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "object does not exist")
	case "NoSuchBucket":
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "bucket does not exist")
	case "AccessDenied":
		return platformerrors.Wrap(err, platformerrors.CodeForbidden, "access denied")
	}

	return platformerrors.Wrap(err, platformerrors.CodeNetwork, "storage request failed")
}
