package kvdb

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrInvalidKey    = errors.New("invalid key")
	ErrUnknownBucket = errors.New("unknown bucket")
)

type InvalidKeyError struct {
	Key    string
	Reason string
}

type NotFoundError struct {
	Bucket string
	Key    string
}

type UnknownBucketError struct {
	Bucket string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %s: %s", e.Key, e.Reason)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found in bucket %s: %s", e.Bucket, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *UnknownBucketError) Error() string {
	return fmt.Sprintf("bucket not found: %s", e.Bucket)
}

func (e *UnknownBucketError) Is(target error) bool {
	return target == ErrUnknownBucket
}
