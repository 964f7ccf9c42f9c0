// Package score turns round results into per-player point deltas and stable
// rankings. It is the only code that adjusts player scores.
package score

import (
	"math"
	"sort"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// Point awards per round type.
const (
	CorrectAnswerPoints = 100
	TimeBonusMax        = 50
	HotButtonPoints     = 100
	ListItemPoints      = 50
	ListWinnerBonus     = 100
)

// RoundDeltas computes the score changes a finished round produces. It is a
// pure function of the round result; calling it twice on the same result
// yields the same deltas.
func RoundDeltas(res model.RoundResult) map[string]int {
	deltas := make(map[string]int)
	switch res.Type {
	case model.RoundQuestion:
		for _, o := range res.QuestionOutcomes {
			if !o.Correct {
				continue
			}
			deltas[o.PlayerID] += CorrectAnswerPoints
			if res.Question != nil && res.Question.Type == model.QuestionChoice {
				deltas[o.PlayerID] += int(math.Round(o.TimeFactor * TimeBonusMax))
			}
		}
	case model.RoundHotButton:
		for _, o := range res.HotButtonOutcomes {
			if o.Correct && o.WinnerID != "" {
				deltas[o.WinnerID] += HotButtonPoints
			}
		}
	case model.RoundCollectiveList:
		for _, guesser := range res.ListGuesses {
			deltas[guesser] += ListItemPoints
		}
		for _, w := range res.ListWinners {
			deltas[w] += ListWinnerBonus
		}
	}
	return deltas
}

// Apply adds the deltas to the players' cumulative scores.
func Apply(players []*model.Player, deltas map[string]int) {
	for _, p := range players {
		if d, ok := deltas[p.ID]; ok {
			p.Score += d
		}
	}
}

// Rank produces the scoreboard: descending by score, ties kept in join
// order. The input slice must already be in join order.
func Rank(players []*model.Player) []model.RankEntry {
	entries := make([]model.RankEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, model.RankEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries
}
