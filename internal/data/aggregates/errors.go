package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("workflow validation")
	// ErrUnauthorized indicates the actor lacks the required role.
	ErrUnauthorized = errors.New("workflow unauthorized")
	// ErrInvariant indicates invariant rule violation.
	ErrInvariant = errors.New("workflow invariant violation")
	// ErrPrecondition indicates the document is not in a state that permits
	// the operation.
	ErrPrecondition = errors.New("workflow precondition failed")
	// ErrConflict indicates optimistic/concurrency conflict.
	ErrConflict = errors.New("workflow conflict")
	// ErrBudgetExceeded indicates the operation would overshoot the ceiling.
	ErrBudgetExceeded = errors.New("workflow budget exceeded")
	// ErrDeadlineExceeded indicates the submission deadline has passed.
	ErrDeadlineExceeded = errors.New("workflow deadline exceeded")
	// ErrSubmissionsClosed indicates submissions are administratively off.
	ErrSubmissionsClosed = errors.New("workflow submissions closed")
	// ErrStorageUnavailable indicates the blob-store collaborator failed.
	ErrStorageUnavailable = errors.New("workflow storage unavailable")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("workflow retryable")
)

func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func UnauthorizedError(msg string) error {
	return errors.Join(ErrUnauthorized, errors.New(strings.TrimSpace(msg)))
}

func InvariantError(msg string) error {
	return errors.Join(ErrInvariant, errors.New(strings.TrimSpace(msg)))
}

func PreconditionError(msg string) error {
	return errors.Join(ErrPrecondition, errors.New(strings.TrimSpace(msg)))
}

func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

func BudgetExceededError(msg string) error {
	return errors.Join(ErrBudgetExceeded, errors.New(strings.TrimSpace(msg)))
}

func StorageUnavailableError(msg string) error {
	return errors.Join(ErrStorageUnavailable, errors.New(strings.TrimSpace(msg)))
}

func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure/domain failures into workflow error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrUnauthorized):
		return domainagg.Wrap(domainagg.CodeUnauthorized, op, err)
	case errors.Is(err, ErrInvariant):
		return domainagg.Wrap(domainagg.CodeInvariantViolation, op, err)
	case errors.Is(err, ErrPrecondition):
		return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err)
	case errors.Is(err, ErrConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrBudgetExceeded):
		return domainagg.Wrap(domainagg.CodeBudgetExceeded, op, err)
	case errors.Is(err, ErrDeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeDeadlineExceeded, op, err)
	case errors.Is(err, ErrSubmissionsClosed):
		return domainagg.Wrap(domainagg.CodeSubmissionsClosed, op, err)
	case errors.Is(err, ErrStorageUnavailable):
		return domainagg.Wrap(domainagg.CodeStorageUnavailable, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domainagg.Wrap(domainagg.CodeConflict, op, err) // unique_violation
		case "23503":
			return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
}
