package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "business_info"); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := MapError(pgx.ErrNoRows, "business_info")

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := "business_info: not found"; got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
	if domain.Classify(got) != domain.ClassNotFoundEmpty {
		t.Errorf("Classify = %v", domain.Classify(got))
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	got := MapError(wrapped, "contact_info")

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_ServerCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code  string
		want  error
		class domain.ErrorClass
	}{
		{"42P01", domain.ErrRelationMissing, domain.ClassRelationMissing},
		{"42501", domain.ErrPermissionDenied, domain.ClassPermissionDenied},
		{"23505", domain.ErrAlreadyExists, domain.ClassUnknown},
		{"23514", domain.ErrValidation, domain.ClassValidation},
		{"23503", domain.ErrNotFound, domain.ClassNotFoundEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			got := MapError(&pgconn.PgError{Code: tt.code, Message: "boom"}, "brand_assets")

			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%s) does not wrap %v: %v", tt.code, tt.want, got)
			}
			if c := domain.Classify(got); c != tt.class {
				t.Errorf("Classify(%s) = %v, want %v", tt.code, c, tt.class)
			}
		})
	}
}

func TestMapError_KeepsGatewayDetails(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "reviews" does not exist`, Hint: "run migrations"}
	got := MapError(pgErr, "reviews")

	var gw *domain.GatewayError
	if !errors.As(got, &gw) {
		t.Fatalf("expected *domain.GatewayError, got %T", got)
	}
	if gw.Code != "42P01" || gw.Hint != "run migrations" {
		t.Errorf("unexpected gateway error %+v", gw)
	}
}

func TestMapError_ContextPassThrough(t *testing.T) {
	t.Parallel()

	for _, base := range []error{context.Canceled, context.DeadlineExceeded} {
		got := MapError(base, "accounts")
		if !errors.Is(got, base) {
			t.Errorf("MapError(%v) lost the context error: %v", base, got)
		}
		if errors.Is(got, domain.ErrNotFound) {
			t.Errorf("MapError(%v) must not map to ErrNotFound", base)
		}
	}
}

func TestMapError_Unknown(t *testing.T) {
	t.Parallel()

	base := errors.New("connection reset")
	got := MapError(base, "website_info")

	if !errors.Is(got, base) {
		t.Errorf("expected wrapped original error, got %v", got)
	}
	if domain.Classify(got) != domain.ClassUnknown {
		t.Errorf("Classify = %v", domain.Classify(got))
	}
}
