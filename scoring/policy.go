package scoring

// PointPolicy - таблица начисления очков. Значения - константа политики
// продукта, а не магические числа в логике; движок получает её параметром.
type PointPolicy struct {
	ExactScore        int // точный счёт матча
	CorrectOutcome    int // угадан исход (победитель/ничья), счёт неточный
	PenaltyWinner     int // (только плей-офф) угадан победитель серии пенальти
	TeamPosition      int // за каждую команду на верном месте в группе
	PerfectGroupBonus int // бонус за все 4 места группы
	TopscorerExact    int // угадан лучший бомбардир
	TopscorerTopThree int // прогноз попал в топ-3 бомбардиров (не первый)
	WinnerExact       int // угадан победитель турнира
	WinnerFinalist    int // прогноз - финалист, проигравший финал
}

// DefaultPolicy - действующая таблица очков.
var DefaultPolicy = PointPolicy{
	ExactScore:        5,
	CorrectOutcome:    2,
	PenaltyWinner:     3,
	TeamPosition:      3,
	PerfectGroupBonus: 10,
	TopscorerExact:    15,
	TopscorerTopThree: 3,
	WinnerExact:       25,
	WinnerFinalist:    5,
}
