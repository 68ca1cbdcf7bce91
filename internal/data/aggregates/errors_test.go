package aggregates

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_BudgetExceeded(t *testing.T) {
	err := MapError("op", BudgetExceededError("ceiling"))
	if !domainagg.IsCode(err, domainagg.CodeBudgetExceeded) {
		t.Fatalf("expected budget_exceeded code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_SubmissionGates(t *testing.T) {
	if err := MapError("op", ErrSubmissionsClosed); !domainagg.IsCode(err, domainagg.CodeSubmissionsClosed) {
		t.Fatalf("expected submissions_closed code, got %q (%v)", domainagg.CodeOf(err), err)
	}
	if err := MapError("op", ErrDeadlineExceeded); !domainagg.IsCode(err, domainagg.CodeDeadlineExceeded) {
		t.Fatalf("expected deadline_exceeded code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_UniqueViolation(t *testing.T) {
	err := MapError("op", &pgconn.PgError{Code: "23505"})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_LockNotAvailable(t *testing.T) {
	err := MapError("op", &pgconn.PgError{Code: "55P03"})
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("expected retryable code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
