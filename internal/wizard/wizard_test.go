package wizard

import (
	"errors"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestNext_BlocksOnMissingCheckInTime(t *testing.T) {
	w := New(false)

	err := w.Next()

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %v", err)
	}
	if stepErr.Field != "expected_check_in_time" {
		t.Fatalf("field = %q, want expected_check_in_time", stepErr.Field)
	}
	if w.Current() != StepCheckIn {
		t.Fatalf("current = %s, want %s", w.Current(), StepCheckIn)
	}
}

func TestNext_PaymentStepRequiresMethod(t *testing.T) {
	w := New(false)
	w.Apply(FormPatch{
		ExpectedCheckInTime: strPtr("14:00"),
		RoomType:            strPtr("deluxe"),
		StayPurpose:         strPtr("leisure"),
	})
	if err := w.Next(); err != nil {
		t.Fatalf("check-in step: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("room/stay step: %v", err)
	}

	err := w.Next()

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %v", err)
	}
	if stepErr.Step != StepPayment || stepErr.Field != "payment_method" {
		t.Fatalf("unexpected step error: %+v", stepErr)
	}
	if w.Current() != StepPayment {
		t.Fatalf("current = %s, must stay on payment step", w.Current())
	}
}

func TestNext_RoomTypeWaivedForPreselectedRate(t *testing.T) {
	w := New(true)
	w.Apply(FormPatch{ExpectedCheckInTime: strPtr("14:00")})
	if err := w.Next(); err != nil {
		t.Fatalf("check-in step: %v", err)
	}

	w.Apply(FormPatch{StayPurpose: strPtr("leisure")})
	if err := w.Next(); err != nil {
		t.Fatalf("room/stay step with preselected rate: %v", err)
	}
	if w.Current() != StepPayment {
		t.Fatalf("current = %s, want %s", w.Current(), StepPayment)
	}
}

func TestNext_RoomTypeRequiredWithoutPreselectedRate(t *testing.T) {
	w := New(false)
	w.Apply(FormPatch{ExpectedCheckInTime: strPtr("14:00"), StayPurpose: strPtr("leisure")})
	if err := w.Next(); err != nil {
		t.Fatalf("check-in step: %v", err)
	}

	err := w.Next()

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %v", err)
	}
	if stepErr.Field != "room_type" {
		t.Fatalf("field = %q, want room_type", stepErr.Field)
	}
}

func TestNext_OptionalStepsAlwaysPass(t *testing.T) {
	w := newWizardAt(t, StepGuests)

	for _, want := range []Step{StepRequests, StepDocuments} {
		if err := w.Next(); err != nil {
			t.Fatalf("optional step must pass, got %v", err)
		}
		if w.Current() != want {
			t.Fatalf("current = %s, want %s", w.Current(), want)
		}
	}

	// Последний шаг: движение вперёд упирается в него без ошибки.
	if err := w.Next(); err != nil {
		t.Fatalf("next on last step: %v", err)
	}
	if w.Current() != StepDocuments {
		t.Fatalf("current = %s, want %s", w.Current(), StepDocuments)
	}
}

func TestPrevious_NeverValidatesAndFloorsAtFirstStep(t *testing.T) {
	w := New(false)

	w.Previous()
	if w.Current() != StepCheckIn {
		t.Fatalf("current = %s, want %s", w.Current(), StepCheckIn)
	}

	w = newWizardAt(t, StepPayment)
	w.Previous()
	if w.Current() != StepRoomStay {
		t.Fatalf("current = %s, want %s", w.Current(), StepRoomStay)
	}
}

func TestAddGuest_RequiresNameAndPhone(t *testing.T) {
	w := New(false)

	if err := w.AddGuest("  ", "+966500000001"); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := w.AddGuest("Ahmed", "   "); err == nil {
		t.Fatalf("expected error for blank phone")
	}
	if err := w.AddGuest(" Ahmed ", " +966500000001 "); err != nil {
		t.Fatalf("AddGuest: %v", err)
	}

	if len(w.Form.Guests) != 1 {
		t.Fatalf("guests = %d, want 1", len(w.Form.Guests))
	}
	if w.Form.Guests[0].Name != "Ahmed" || w.Form.Guests[0].Phone != "+966500000001" {
		t.Fatalf("guest not trimmed: %+v", w.Form.Guests[0])
	}
}

func TestRemoveGuest_KeepsSurvivorsIntact(t *testing.T) {
	w := New(false)
	_ = w.AddGuest("A", "1")
	_ = w.AddGuest("B", "2")
	_ = w.AddGuest("C", "3")

	if err := w.RemoveGuest(1); err != nil {
		t.Fatalf("RemoveGuest: %v", err)
	}

	if len(w.Form.Guests) != 2 {
		t.Fatalf("guests = %d, want 2", len(w.Form.Guests))
	}
	if w.Form.Guests[0].Name != "A" || w.Form.Guests[1].Name != "C" {
		t.Fatalf("survivors changed: %+v", w.Form.Guests)
	}

	if err := w.RemoveGuest(5); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}

func TestSubmit_ValidatesRequiredSteps(t *testing.T) {
	w := New(true)
	w.Apply(FormPatch{
		ExpectedCheckInTime: strPtr("15:00"),
		StayPurpose:         strPtr("business"),
	})

	err := w.Submit()
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Field != "payment_method" {
		t.Fatalf("expected payment_method step error, got %v", err)
	}
	if w.Submitted() {
		t.Fatalf("wizard must not be submitted after failed validation")
	}

	w.Apply(FormPatch{PaymentMethod: strPtr("card")})
	if err := w.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !w.Submitted() {
		t.Fatalf("wizard must be submitted")
	}
}

// newWizardAt доводит анкету до указанного шага, заполняя обязательные поля.
func newWizardAt(t *testing.T, target Step) *Wizard {
	t.Helper()

	w := New(false)
	w.Apply(FormPatch{
		ExpectedCheckInTime: strPtr("14:00"),
		RoomType:            strPtr("deluxe"),
		StayPurpose:         strPtr("leisure"),
		PaymentMethod:       strPtr("card"),
	})

	for w.Current() != target {
		if err := w.Next(); err != nil {
			t.Fatalf("advancing to %s: %v", target, err)
		}
	}

	return w
}
