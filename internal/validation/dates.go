// Package validation содержит функции валидации входных данных.
package validation

import "time"

const stayDateLayout = "2006-01-02"

// ParseStayDates разбирает даты заезда и выезда в формате YYYY-MM-DD.
func ParseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(stayDateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	out, err := time.Parse(stayDateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return in, out, nil
}

// IsValidStayRange проверяет, что обе даты разбираются и выезд строго позже заезда.
func IsValidStayRange(checkIn, checkOut string) bool {
	in, out, err := ParseStayDates(checkIn, checkOut)
	if err != nil {
		return false
	}
	return out.After(in)
}
