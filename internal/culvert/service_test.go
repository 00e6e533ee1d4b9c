package culvert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(NewRepository(testDB(t)), logger)
}

func TestService_CreateValidation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Culvert)
		field  string
	}{
		{"blank address", func(c *Culvert) { c.Address = "  " }, "address"},
		{"blank serial", func(c *Culvert) { c.SerialNumber = "" }, "serial_number"},
		{"strength rating too high", func(c *Culvert) { v := 10.5; c.StrengthRating = &v }, "strength_rating"},
		{"safety rating negative", func(c *Culvert) { v := -0.1; c.SafetyRating = &v }, "safety_rating"},
		{"maintainability out of range", func(c *Culvert) { v := 11.0; c.MaintainabilityRating = &v }, "maintainability_rating"},
		{"general condition out of range", func(c *Culvert) { v := 100.0; c.GeneralConditionRating = &v }, "general_condition_rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCulvert("KT-100")
			tt.mutate(c)

			err := svc.Create(ctx, c)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("validation field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestService_RatingBoundsInclusive(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	c := testCulvert("KT-101")
	low, high := 0.0, 10.0
	c.StrengthRating = &low
	c.SafetyRating = &high

	if err := svc.Create(ctx, c); err != nil {
		t.Errorf("Create() with boundary ratings error = %v", err)
	}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	c := testCulvert("KT-102")
	if err := svc.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SerialNumber != "KT-102" {
		t.Errorf("SerialNumber = %q, want KT-102", got.SerialNumber)
	}
}

func TestService_ListWithAddressFilter(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a := testCulvert("KT-103")
	a.Address = "3 Mill Lane"
	b := testCulvert("KT-104")
	b.Address = "9 Harbour Street"
	for _, c := range []*Culvert{a, b} {
		if err := svc.Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(\"\") = %d records, want 2", len(all))
	}

	// Blank-ish filters fall through to the full listing.
	all, err = svc.List(ctx, "   ")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(whitespace) = %d records, want 2", len(all))
	}

	filtered, err := svc.List(ctx, "mill")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].SerialNumber != "KT-103" {
		t.Errorf("List(mill) = %v, want only KT-103", filtered)
	}
}

func TestService_Update(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	c := testCulvert("KT-105")
	if err := svc.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	c.Road = "A-108"
	if err := svc.Update(ctx, c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Road != "A-108" {
		t.Errorf("Road = %q, want A-108", got.Road)
	}

	// Update without an ID is rejected before touching the store.
	c.ID = ""
	err = svc.Update(ctx, c)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "id" {
		t.Errorf("Update() without ID error = %v, want ValidationError on id", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	c := testCulvert("KT-106")
	if err := svc.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
