// Package rates группирует тарифы фида инвентаря по нормализованному названию номера.
package rates

import (
	"strings"

	"github.com/safarly/booking-system/internal/model"
)

// NormalizeRoomName убирает из названия номера завершающие уточнения в скобках:
// конфигурацию кроватей, площадь, вид из окна, оговорки о доступности.
// Некоторые поставщики накапливают несколько уточнений подряд, поэтому
// срез применяется в цикле до неподвижной точки. Если после среза название
// пустеет, возвращается исходное название без изменений.
func NormalizeRoomName(name string) string {
	normalized := strings.TrimSpace(name)

	for {
		next := stripTrailingQualifier(normalized)
		if next == normalized {
			break
		}
		normalized = next
	}

	if normalized == "" {
		return name
	}

	return normalized
}

// stripTrailingQualifier убирает одно завершающее уточнение вида "(...)".
// Скобки внутри названия не трогаются: срезается только закрывающая пара в конце.
func stripTrailingQualifier(name string) string {
	trimmed := strings.TrimSpace(name)
	if !strings.HasSuffix(trimmed, ")") {
		return trimmed
	}

	depth := 0
	for i := len(trimmed) - 1; i >= 0; i-- {
		switch trimmed[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return strings.TrimSpace(trimmed[:i])
			}
		}
	}

	// Непарная скобка — название оставляется как есть.
	return trimmed
}

// Group объединяет тарифы с одинаковым нормализованным названием номера,
// сохраняя порядок поставщика внутри группы и порядок первого появления групп.
// Каждый входной тариф попадает ровно в одну группу; тарифы с пустым или
// неразбираемым названием образуют собственные группы без изменений.
func Group(rawRates []model.RoomRate) []model.RateGroup {
	var groups []model.RateGroup
	index := make(map[string]int)

	for _, rate := range rawRates {
		name := NormalizeRoomName(rate.RoomName)

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, model.RateGroup{Name: name})
		}

		groups[i].Rates = append(groups[i].Rates, rate)
	}

	return groups
}
