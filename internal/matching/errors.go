package matching

import (
	"errors"
	"fmt"
)

// Role names the corpus a document belongs to.
type Role string

const (
	RoleCandidates Role = "candidates"
	RoleTargets    Role = "targets"
)

var (
	// ErrEmptyCorpus signals that candidates or targets were empty at match time.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrEncoding signals that the encoder could not process a document.
	ErrEncoding = errors.New("encoding failed")
)

// EmptyCorpusError reports which corpus was empty.
type EmptyCorpusError struct {
	Role Role
}

func (e *EmptyCorpusError) Error() string {
	return fmt.Sprintf("%s: no %s provided", ErrEmptyCorpus, e.Role)
}

func (e *EmptyCorpusError) Is(target error) bool { return target == ErrEmptyCorpus }

// EncodingError reports the document that aborted a run.
type EncodingError struct {
	Role  Role
	Index int
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %s %d: %v", ErrEncoding, e.Role, e.Index, e.Err)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

func (e *EncodingError) Unwrap() error { return e.Err }

func errVectorCount(got, want int) error {
	return fmt.Errorf("encoder returned %d vectors for %d texts", got, want)
}
