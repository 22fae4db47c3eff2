// Package scoring реализует чистые функции начисления очков и рейтинга.
// Пакет не читает и не пишет состояние: вход - пара (прогноз, результат),
// выход - целое число очков. Это делает его тривиально тестируемым.
package scoring

import (
	"errors"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrStandingSizeInvalid = errors.New("standing list must contain exactly 4 teams")
	ErrStandingDuplicates  = errors.New("standing list contains duplicate teams")
)

// Outcome - исход матча с точки зрения основного времени.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeDraw Outcome = "draw"
)

// OutcomeOf классифицирует счёт. Одна и та же функция применяется
// к прогнозу и к фактическому счёту перед сравнением.
func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHome
	case away > home:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// MatchForecast - прогноз участника.
type MatchForecast struct {
	Home          int
	Away          int
	PenaltyWinner *string
}

// MatchFacts - официальный результат матча.
type MatchFacts struct {
	Home          int
	Away          int
	Knockout      bool
	PenaltyWinner *string
}

// ScoreMatch возвращает очки за прогноз матча и категорию начисления.
// Приоритет: точный счёт > верный исход > (плей-офф) победитель пенальти.
func ScoreMatch(forecast MatchForecast, actual MatchFacts, policy PointPolicy) (int, models.MatchOutcomeKind) {
	if forecast.Home == actual.Home && forecast.Away == actual.Away {
		return policy.ExactScore, models.OutcomeKindExact
	}
	if OutcomeOf(forecast.Home, forecast.Away) == OutcomeOf(actual.Home, actual.Away) {
		return policy.CorrectOutcome, models.OutcomeKindResult
	}
	if actual.Knockout && actual.PenaltyWinner != nil && forecast.PenaltyWinner != nil &&
		*forecast.PenaltyWinner == *actual.PenaltyWinner {
		return policy.PenaltyWinner, models.OutcomeKindPenalty
	}
	return 0, models.OutcomeKindMiss
}

// ScoreGroupStanding возвращает очки за прогноз таблицы группы и число
// верно угаданных мест. Оба списка обязаны содержать ровно 4 различные
// команды - это инвариант и результата, и прогноза.
func ScoreGroupStanding(predicted, actual []string, policy PointPolicy) (points, correctPlaces int, err error) {
	if err := validateStanding(predicted); err != nil {
		return 0, 0, err
	}
	if err := validateStanding(actual); err != nil {
		return 0, 0, err
	}
	for i := range actual {
		if predicted[i] == actual[i] {
			correctPlaces++
		}
	}
	points = correctPlaces * policy.TeamPosition
	if correctPlaces == models.GroupStandingSize {
		points += policy.PerfectGroupBonus
	}
	return points, correctPlaces, nil
}

func validateStanding(teams []string) error {
	if len(teams) != models.GroupStandingSize {
		return ErrStandingSizeInvalid
	}
	seen := make(map[string]struct{}, models.GroupStandingSize)
	for _, team := range teams {
		if team == "" {
			return ErrStandingSizeInvalid
		}
		if _, dup := seen[team]; dup {
			return ErrStandingDuplicates
		}
		seen[team] = struct{}{}
	}
	return nil
}

// ScoreTopscorer: полное попадание, попадание в топ-3 (не первым), мимо.
// topThree - фактический топ-3 бомбардиров, первым элементом идёт лучший.
func ScoreTopscorer(predicted, actual string, topThree []string, policy PointPolicy) int {
	if predicted == "" {
		return 0
	}
	if predicted == actual {
		return policy.TopscorerExact
	}
	for _, player := range topThree {
		if player == predicted && player != actual {
			return policy.TopscorerTopThree
		}
	}
	return 0
}

// ScoreWinner: угадан чемпион, угадан финалист (проигравший финал), мимо.
func ScoreWinner(predicted, winner, finalist string, policy PointPolicy) int {
	switch predicted {
	case "":
		return 0
	case winner:
		return policy.WinnerExact
	case finalist:
		return policy.WinnerFinalist
	default:
		return 0
	}
}
