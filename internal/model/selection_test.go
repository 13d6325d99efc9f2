package model

import (
	"reflect"
	"testing"
)

func TestRateSelection_InsertionOrder(t *testing.T) {
	s := NewRateSelection()

	s.Set("m1", 1)
	s.Set("m2", 2)
	s.Set("m3", 1)

	if got := s.Hashes(); !reflect.DeepEqual(got, []string{"m1", "m2", "m3"}) {
		t.Fatalf("hashes = %v", got)
	}

	primary, ok := s.Primary()
	if !ok || primary != "m1" {
		t.Fatalf("primary = %q, %v; want m1", primary, ok)
	}
}

func TestRateSelection_UpdateKeepsPosition(t *testing.T) {
	s := NewRateSelection()

	s.Set("m1", 1)
	s.Set("m2", 1)
	s.Set("m1", 3)

	if got := s.Hashes(); !reflect.DeepEqual(got, []string{"m1", "m2"}) {
		t.Fatalf("hashes = %v", got)
	}
	if s.Count("m1") != 3 {
		t.Fatalf("count(m1) = %d, want 3", s.Count("m1"))
	}
}

func TestRateSelection_RemovePromotesNext(t *testing.T) {
	s := NewRateSelection()

	s.Set("m1", 1)
	s.Set("m2", 2)
	s.Remove("m1")

	primary, ok := s.Primary()
	if !ok || primary != "m2" {
		t.Fatalf("primary = %q, %v; want m2", primary, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestRateSelection_ZeroCountRemoves(t *testing.T) {
	s := NewRateSelection()

	s.Set("m1", 2)
	s.Set("m1", 0)

	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
	if _, ok := s.Primary(); ok {
		t.Fatalf("primary must be absent in empty selection")
	}
}

func TestRateSelection_TotalRooms(t *testing.T) {
	s := NewRateSelection()

	s.Set("m1", 2)
	s.Set("m2", 3)

	if got := s.TotalRooms(); got != 5 {
		t.Fatalf("total rooms = %d, want 5", got)
	}
}

func TestPromoCodeResult_DiscountAmount(t *testing.T) {
	valid := &PromoCodeResult{Valid: true, OriginalValue: 300, FinalValue: 250}
	if got := valid.DiscountAmount(); got != 50 {
		t.Fatalf("discount = %v, want 50", got)
	}

	invalid := &PromoCodeResult{Valid: false, OriginalValue: 300, FinalValue: 250}
	if got := invalid.DiscountAmount(); got != 0 {
		t.Fatalf("discount = %v, want 0 for invalid result", got)
	}

	var nilResult *PromoCodeResult
	if got := nilResult.DiscountAmount(); got != 0 {
		t.Fatalf("discount = %v, want 0 for nil result", got)
	}
}
