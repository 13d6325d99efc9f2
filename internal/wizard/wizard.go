// Package wizard реализует пошаговую анкету гостя при оформлении бронирования.
package wizard

import (
	"fmt"
	"strings"
)

// Step идентифицирует шаг анкеты.
type Step string

const (
	StepCheckIn   Step = "check_in"
	StepRoomStay  Step = "room_stay"
	StepPayment   Step = "payment"
	StepGuests    Step = "guests"
	StepRequests  Step = "requests"
	StepDocuments Step = "documents"
)

// Guest описывает дополнительного гостя бронирования.
type Guest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Form хранит данные, собранные анкетой по всем шагам.
type Form struct {
	ExpectedCheckInTime string  `json:"expected_check_in_time"`
	RoomType            string  `json:"room_type"`
	StayPurpose         string  `json:"stay_purpose"`
	PaymentMethod       string  `json:"payment_method"`
	Guests              []Guest `json:"guests"`
	SpecialRequests     string  `json:"special_requests"`
	DocumentRefs        []string `json:"document_refs"`
}

// FormPatch содержит изменения полей анкеты. Нулевые указатели означают
// «поле не менять»; применяется перед валидацией перехода на следующий шаг.
type FormPatch struct {
	ExpectedCheckInTime *string  `json:"expected_check_in_time,omitempty"`
	RoomType            *string  `json:"room_type,omitempty"`
	StayPurpose         *string  `json:"stay_purpose,omitempty"`
	PaymentMethod       *string  `json:"payment_method,omitempty"`
	SpecialRequests     *string  `json:"special_requests,omitempty"`
	DocumentRefs        []string `json:"document_refs,omitempty"`
}

// StepError описывает ошибку валидации конкретного поля шага.
// Переход на следующий шаг при такой ошибке не происходит.
type StepError struct {
	Step    Step   `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error реализует интерфейс error.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: field %s: %s", e.Step, e.Field, e.Message)
}

// Wizard — конечный автомат анкеты: упорядоченный список шагов с валидацией
// при движении вперёд. Переходы не выполняют сетевых вызовов.
type Wizard struct {
	steps           []Step
	current         int
	preselectedRate bool
	submitted       bool

	Form Form
}

// New создаёт анкету на первом шаге. При заранее выбранном тарифе
// требование указать тип номера на шаге room_stay снимается.
func New(preselectedRate bool) *Wizard {
	return &Wizard{
		steps: []Step{
			StepCheckIn,
			StepRoomStay,
			StepPayment,
			StepGuests,
			StepRequests,
			StepDocuments,
		},
		preselectedRate: preselectedRate,
	}
}

// Current возвращает текущий шаг анкеты.
func (w *Wizard) Current() Step {
	return w.steps[w.current]
}

// Steps возвращает полный список шагов в порядке прохождения.
func (w *Wizard) Steps() []Step {
	res := make([]Step, len(w.steps))
	copy(res, w.steps)
	return res
}

// Submitted сообщает, завершена ли анкета.
func (w *Wizard) Submitted() bool {
	return w.submitted
}

// Apply вносит изменения полей анкеты без смены шага.
func (w *Wizard) Apply(patch FormPatch) {
	if patch.ExpectedCheckInTime != nil {
		w.Form.ExpectedCheckInTime = strings.TrimSpace(*patch.ExpectedCheckInTime)
	}
	if patch.RoomType != nil {
		w.Form.RoomType = strings.TrimSpace(*patch.RoomType)
	}
	if patch.StayPurpose != nil {
		w.Form.StayPurpose = strings.TrimSpace(*patch.StayPurpose)
	}
	if patch.PaymentMethod != nil {
		w.Form.PaymentMethod = strings.TrimSpace(*patch.PaymentMethod)
	}
	if patch.SpecialRequests != nil {
		w.Form.SpecialRequests = strings.TrimSpace(*patch.SpecialRequests)
	}
	if patch.DocumentRefs != nil {
		w.Form.DocumentRefs = patch.DocumentRefs
	}
}

// Next валидирует текущий шаг и продвигает анкету вперёд. При ошибке
// валидации шаг не меняется и возвращается *StepError с указанием поля.
func (w *Wizard) Next() error {
	if err := w.validateStep(w.Current()); err != nil {
		return err
	}

	if w.current < len(w.steps)-1 {
		w.current++
	}

	return nil
}

// Previous возвращает анкету на предыдущий шаг. Валидация не выполняется,
// ниже первого шага опуститься нельзя.
func (w *Wizard) Previous() {
	if w.current > 0 {
		w.current--
	}
}

// AddGuest добавляет гостя в конец списка. Имя и телефон обязательны
// после обрезки пробелов.
func (w *Wizard) AddGuest(name, phone string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return &StepError{Step: StepGuests, Field: "name", Message: "guest name is required"}
	}
	if phone == "" {
		return &StepError{Step: StepGuests, Field: "phone", Message: "guest phone is required"}
	}

	w.Form.Guests = append(w.Form.Guests, Guest{Name: name, Phone: phone})
	return nil
}

// RemoveGuest удаляет гостя по позиции. Остальные записи сохраняют свои
// данные, меняется только их позиция в списке.
func (w *Wizard) RemoveGuest(i int) error {
	if i < 0 || i >= len(w.Form.Guests) {
		return &StepError{Step: StepGuests, Field: "index", Message: "guest index out of range"}
	}

	w.Form.Guests = append(w.Form.Guests[:i], w.Form.Guests[i+1:]...)
	return nil
}

// Submit проверяет все обязательные шаги и переводит анкету в терминальное
// состояние. После успешного вызова анкета считается закрытой.
func (w *Wizard) Submit() error {
	for _, s := range w.steps {
		if err := w.validateStep(s); err != nil {
			return err
		}
	}

	w.submitted = true
	return nil
}

func (w *Wizard) validateStep(s Step) error {
	switch s {
	case StepCheckIn:
		if w.Form.ExpectedCheckInTime == "" {
			return &StepError{Step: s, Field: "expected_check_in_time", Message: "expected check-in time is required"}
		}
	case StepRoomStay:
		if !w.preselectedRate && w.Form.RoomType == "" {
			return &StepError{Step: s, Field: "room_type", Message: "room type is required"}
		}
		if w.Form.StayPurpose == "" {
			return &StepError{Step: s, Field: "stay_purpose", Message: "stay purpose is required"}
		}
	case StepPayment:
		if w.Form.PaymentMethod == "" {
			return &StepError{Step: s, Field: "payment_method", Message: "payment method is required"}
		}
	}

	// Гости, пожелания и документы необязательны: переход всегда разрешён.
	return nil
}
