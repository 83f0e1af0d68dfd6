package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/lib/pq"

	"listing_harvester/internal/domain"
)

var (
	// ErrRunNotSet is returned when listings are written before a run id exists.
	ErrRunNotSet   = errors.New("run id not set")
	ErrRunNotFound = errors.New("run not found")
	ErrPoolClosed  = errors.New("connection pool closed")
)

// ErrorClass separates failures worth retrying from deterministic ones.
type ErrorClass int

const (
	ClassFatal ErrorClass = iota
	ClassRetryable
)

func (c ErrorClass) String() string {
	if c == ClassRetryable {
		return "retryable"
	}
	return "fatal"
}

// OpError is a classified storage failure.
type OpError struct {
	Op    string
	Class ErrorClass
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports retryable errors as domain.ErrConnectivity.
func (e *OpError) Is(target error) bool {
	return target == domain.ErrConnectivity && e.Class == ClassRetryable
}

func (e *OpError) Retryable() bool {
	return e.Class == ClassRetryable
}

// Classify decides whether err means the database link is unusable.
// Context cancellation is always fatal.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassFatal
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Class
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return ClassRetryable
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifySQLState(pqErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetryable
	}

	return ClassFatal
}

// classifySQLState treats connection exceptions (class 08) and server
// shutdowns (57P01..57P03) as retryable.
func classifySQLState(code pq.ErrorCode) ErrorClass {
	if code.Class() == "08" {
		return ClassRetryable
	}
	switch code {
	case "57P01", "57P02", "57P03":
		return ClassRetryable
	}
	return ClassFatal
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Class: Classify(err), Err: err}
}
