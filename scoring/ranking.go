package scoring

import "sort"

// MemberTotal - агрегат одного участника пула перед ранжированием.
// ExactHits - число точных прогнозов счёта (категория exact), тай-брейк.
type MemberTotal struct {
	UserID    int
	Points    int
	ExactHits int
	Rank      int
}

// DenseRank сортирует участников по очкам (убыв.), затем по числу точных
// попаданий (убыв.) и проставляет плотный ранг: при полном равенстве
// (очки, точные) участники делят ранг, следующий отличный результат
// получает предыдущий ранг + 1, а не + размер группы.
// Результат детерминирован: при равенстве порядок вывода стабилизируется
// по UserID, но на сам ранг это не влияет.
func DenseRank(rows []MemberTotal) []MemberTotal {
	ranked := make([]MemberTotal, len(rows))
	copy(ranked, rows)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		if ranked[i].ExactHits != ranked[j].ExactHits {
			return ranked[i].ExactHits > ranked[j].ExactHits
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	rank := 0
	for i := range ranked {
		if i == 0 || ranked[i].Points != ranked[i-1].Points || ranked[i].ExactHits != ranked[i-1].ExactHits {
			rank++
		}
		ranked[i].Rank = rank
	}
	return ranked
}
