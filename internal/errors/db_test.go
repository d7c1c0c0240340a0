package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDBError(tt.err)
			if GetCode(mapped) != tt.wantCode {
				t.Errorf("code = %v, want %v", GetCode(mapped), tt.wantCode)
			}
			if !errors.Is(mapped, tt.err) {
				t.Error("mapped error should preserve the cause")
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	mapped := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(mapped) {
		t.Errorf("pgx.ErrNoRows should map to NotFound, got %v", GetCode(mapped))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name: "field from column metadata",
			pgErr: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				ColumnName: "url",
			},
			wantField: "url",
		},
		{
			name: "field from detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (url)=(https://example.com/job/1) already exists.",
			},
			wantField: "url",
		},
		{
			name: "field inferred from constraint name",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "jobs_url_key",
			},
			wantField: "url",
		},
		{
			name: "ambiguous multi-column constraint yields no field",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "jobs_user_id_url_key",
			},
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDBError(tt.pgErr)
			if !IsConflict(mapped) {
				t.Fatalf("unique violation should map to Conflict, got %v", GetCode(mapped))
			}
			if GetField(mapped) != tt.wantField {
				t.Errorf("field = %q, want %q", GetField(mapped), tt.wantField)
			}
		})
	}
}

func TestMapDBError_CheckViolation(t *testing.T) {
	t.Run("lifecycle invariant constraint", func(t *testing.T) {
		mapped := MapDBError(&pgconn.PgError{
			Code:           pgerrcode.CheckViolation,
			ConstraintName: "jobs_lifecycle_check",
		})
		if !IsValidation(mapped) {
			t.Fatalf("check violation should map to Validation, got %v", GetCode(mapped))
		}
	})

	t.Run("generic check constraint with column", func(t *testing.T) {
		mapped := MapDBError(&pgconn.PgError{
			Code:       pgerrcode.CheckViolation,
			ColumnName: "spam_score",
		})
		if !IsValidation(mapped) {
			t.Fatalf("check violation should map to Validation, got %v", GetCode(mapped))
		}
		if GetField(mapped) != "spam_score" {
			t.Errorf("field = %q, want spam_score", GetField(mapped))
		}
	})
}

func TestMapDBError_NotNullViolation(t *testing.T) {
	mapped := MapDBError(&pgconn.PgError{
		Code:       pgerrcode.NotNullViolation,
		ColumnName: "user_id",
	})
	if !IsValidation(mapped) {
		t.Fatalf("not-null violation should map to Validation, got %v", GetCode(mapped))
	}
	if GetField(mapped) != "user_id" {
		t.Errorf("field = %q, want user_id", GetField(mapped))
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	mapped := MapDBError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
	if !IsInternal(mapped) {
		t.Errorf("unhandled pg error should map to Internal, got %v", GetCode(mapped))
	}
}

func TestMapDBError_PassthroughUnknown(t *testing.T) {
	plain := errors.New("not a database error")
	if mapped := MapDBError(plain); !errors.Is(mapped, plain) {
		t.Errorf("unknown errors should pass through, got %v", mapped)
	}
}
