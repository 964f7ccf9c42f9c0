package game

import (
	"time"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/match"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// collectiveListRound has players take turns naming entries of a target
// list. A fuzzy match reveals the item for the guesser; a miss, a repeat of
// an already-revealed item, a skip, or a turn timeout costs a life. Players
// at zero lives are eliminated. The round ends when the whole list is
// revealed (all_guessed) or one player is left (last_standing).
type collectiveListRound struct {
	task      *model.ListTask
	roster    Roster
	clock     Clock
	turnTime  time.Duration
	threshold float64
	lives     map[string]int

	order        []string          // turn order, join order at start
	removed      map[string]bool   // grace expired mid-round
	eliminated   []string          // elimination record, oldest first
	eliminatedBy map[string]bool
	guessed      map[string]string // item id -> guesser
	guessOrder   []model.GuessedItem
	turnIdx      int
	deadline     time.Time
	endReason    model.ListEndReason
	winners      []string
	complete     bool
}

// NewCollectiveListRound creates the engine for a collective-list round.
func NewCollectiveListRound(task *model.ListTask, roster Roster, clock Clock, turnTime time.Duration, lives int, threshold float64) RoundEngine {
	return &collectiveListRound{
		task:         task,
		roster:       roster,
		clock:        clock,
		turnTime:     turnTime,
		threshold:    threshold,
		lives:        livesFor(roster.OrderedActiveIDs(), lives),
		removed:      make(map[string]bool),
		eliminatedBy: make(map[string]bool),
		guessed:      make(map[string]string),
	}
}

func livesFor(ids []string, lives int) map[string]int {
	m := make(map[string]int, len(ids))
	for _, id := range ids {
		m[id] = lives
	}
	return m
}

func (r *collectiveListRound) Type() model.RoundType { return model.RoundCollectiveList }

func (r *collectiveListRound) Start(now time.Time) {
	r.order = r.roster.OrderedActiveIDs()
	r.deadline = now.Add(r.turnTime)
	r.checkEnd()
}

// remaining reports whether a player is still in the running.
func (r *collectiveListRound) remaining(id string) bool {
	return !r.eliminatedBy[id] && !r.removed[id]
}

// activePlayer returns whose turn it is: the first remaining connected
// player at or after the turn cursor. Disconnected players are skipped but
// keep their seat for a possible reconnect.
func (r *collectiveListRound) activePlayer() string {
	if len(r.order) == 0 {
		return ""
	}
	for i := 0; i < len(r.order); i++ {
		id := r.order[(r.turnIdx+i)%len(r.order)]
		if r.remaining(id) && r.roster.IsConnected(id) {
			return id
		}
	}
	return ""
}

func (r *collectiveListRound) Submit(playerID string, payload SubmitPayload) (SubmitOutcome, error) {
	if r.complete {
		return SubmitOutcome{}, ErrDeadlinePassed
	}
	active := r.activePlayer()
	if active == "" || playerID != active {
		return SubmitOutcome{}, ErrNotYourTurn
	}

	if payload.Skip {
		return r.miss(playerID), nil
	}

	res := match.CheckAnswer(payload.Text, r.task.Items, r.guessedSet(), r.threshold)
	switch res.Type {
	case match.MatchExact, match.MatchFuzzy:
		r.guessed[res.Item.ID] = playerID
		r.guessOrder = append(r.guessOrder, model.GuessedItem{Item: *res.Item, PlayerID: playerID})
		r.advanceTurn()
		r.checkEnd()
		return SubmitOutcome{MatchedItem: res.Item}, nil
	default:
		// No match, or a repeat of a revealed item: the turn is spent.
		return r.miss(playerID), nil
	}
}

func (r *collectiveListRound) miss(playerID string) SubmitOutcome {
	out := SubmitOutcome{TurnMiss: true}
	r.lives[playerID]--
	if r.lives[playerID] <= 0 {
		r.eliminatedBy[playerID] = true
		r.eliminated = append(r.eliminated, playerID)
		out.EliminatedID = playerID
	}
	r.advanceTurn()
	r.checkEnd()
	return out
}

func (r *collectiveListRound) advanceTurn() {
	if len(r.order) == 0 {
		return
	}
	r.turnIdx = (r.turnIdx + 1) % len(r.order)
	r.deadline = r.clock.Now().Add(r.turnTime)
}

func (r *collectiveListRound) Tick(now time.Time) {
	if r.complete || now.Before(r.deadline) {
		return
	}
	active := r.activePlayer()
	if active == "" {
		// Everyone eligible is disconnected; keep the countdown parked
		// until someone reconnects or the room expires.
		r.deadline = now.Add(r.turnTime)
		return
	}
	r.miss(active)
}

func (r *collectiveListRound) checkEnd() {
	if r.complete {
		return
	}
	if len(r.guessed) == len(r.task.Items) {
		r.complete = true
		r.endReason = model.ListAllGuessed
		r.winners = r.tiedLeaders()
		return
	}
	var left []string
	for _, id := range r.order {
		if r.remaining(id) {
			left = append(left, id)
		}
	}
	if len(left) <= 1 {
		r.complete = true
		r.endReason = model.ListLastStanding
		r.winners = left
	}
}

// tiedLeaders returns every player with the highest guess count this round.
func (r *collectiveListRound) tiedLeaders() []string {
	counts := make(map[string]int)
	best := 0
	for _, guesser := range r.guessed {
		counts[guesser]++
		if counts[guesser] > best {
			best = counts[guesser]
		}
	}
	var leaders []string
	for _, id := range r.order {
		if counts[id] == best && best > 0 {
			leaders = append(leaders, id)
		}
	}
	return leaders
}

func (r *collectiveListRound) IsComplete() bool { return r.complete }

func (r *collectiveListRound) ConnectivityChanged() {
	// Turn selection already skips disconnected players through the
	// roster; a player inside grace keeps their rotation slot and lives.
}

func (r *collectiveListRound) PlayerRemoved(playerID string) {
	if r.complete {
		return
	}
	r.removed[playerID] = true
	r.checkEnd()
}

func (r *collectiveListRound) Finalize() model.RoundResult {
	guesses := make(map[string]string, len(r.guessed))
	for item, guesser := range r.guessed {
		guesses[item] = guesser
	}
	return model.RoundResult{
		Type:          model.RoundCollectiveList,
		ListGuesses:   guesses,
		ListEndReason: r.endReason,
		ListWinners:   append([]string(nil), r.winners...),
		ListItems:     append([]model.ListItem(nil), r.task.Items...),
	}
}

func (r *collectiveListRound) guessedSet() map[string]bool {
	set := make(map[string]bool, len(r.guessed))
	for id := range r.guessed {
		set[id] = true
	}
	return set
}

func (r *collectiveListRound) State() model.RoundState {
	deadline := r.deadline
	lives := make(map[string]int, len(r.lives))
	for id, l := range r.lives {
		if l < 0 {
			l = 0
		}
		lives[id] = l
	}
	return model.RoundState{
		Type:           model.RoundCollectiveList,
		ListTitle:      r.task.Title,
		ItemsTotal:     len(r.task.Items),
		GuessedItems:   append([]model.GuessedItem(nil), r.guessOrder...),
		ActivePlayerID: r.activePlayer(),
		Lives:          lives,
		Eliminated:     append([]string(nil), r.eliminated...),
		Deadline:       &deadline,
	}
}
