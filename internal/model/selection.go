package model

// RateSelection хранит выбор тарифов пользователя: match-хеш → количество номеров.
// Порядок вставки детерминирован: первый добавленный тариф считается основным
// и определяет валюту и пребук при оформлении.
type RateSelection struct {
	order  []string
	counts map[string]int
}

// NewRateSelection создаёт пустой выбор тарифов.
func NewRateSelection() *RateSelection {
	return &RateSelection{
		counts: make(map[string]int),
	}
}

// Set устанавливает количество номеров для тарифа. Количество меньше единицы
// удаляет тариф из выбора. На один match-хеш хранится не более одной записи.
func (s *RateSelection) Set(matchHash string, count int) {
	if matchHash == "" {
		return
	}
	if count < 1 {
		s.Remove(matchHash)
		return
	}
	if _, ok := s.counts[matchHash]; !ok {
		s.order = append(s.order, matchHash)
	}
	s.counts[matchHash] = count
}

// Remove удаляет тариф из выбора, сохраняя порядок остальных записей.
func (s *RateSelection) Remove(matchHash string) {
	if _, ok := s.counts[matchHash]; !ok {
		return
	}
	delete(s.counts, matchHash)
	for i, h := range s.order {
		if h == matchHash {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Count возвращает количество номеров, выбранных по тарифу.
func (s *RateSelection) Count(matchHash string) int {
	return s.counts[matchHash]
}

// Hashes возвращает match-хеши выбранных тарифов в порядке добавления.
func (s *RateSelection) Hashes() []string {
	res := make([]string, len(s.order))
	copy(res, s.order)
	return res
}

// Primary возвращает основной (первый добавленный) тариф выбора.
func (s *RateSelection) Primary() (string, bool) {
	if len(s.order) == 0 {
		return "", false
	}
	return s.order[0], true
}

// TotalRooms возвращает суммарное количество номеров по всем тарифам.
func (s *RateSelection) TotalRooms() int {
	total := 0
	for _, c := range s.counts {
		total += c
	}
	return total
}

// Len возвращает количество различных тарифов в выборе.
func (s *RateSelection) Len() int {
	return len(s.order)
}
