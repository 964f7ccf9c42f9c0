package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/score"
)

const (
	categorySelectionTime = 20 * time.Second
	rematchVoteTime       = 30 * time.Second
	repoTimeout           = 5 * time.Second
	categoryChoices       = 4
)

// Room is one game session and its state machine. All mutation is serialized
// behind the room mutex: an inbound message or a scheduled tick is processed
// to completion, broadcasts included, before the next one touches the room.
type Room struct {
	mu sync.Mutex

	log         zerolog.Logger
	clock       Clock
	broadcaster Broadcaster
	questions   QuestionRepository
	recorder    ScoreRecorder

	code     string
	settings model.Settings
	players  []*model.Player // join order
	phase    model.Phase

	roundIdx int
	engine   RoundEngine

	categories        []model.Category
	categoryVotes     map[string]string
	selectionDeadline time.Time

	usedQuestionIDs []string
	usedListIDs     []string

	readyForNext    map[string]bool
	rematchVotes    map[string]bool
	rematchDeadline time.Time
	lastRanking     []model.RankEntry
	stats           model.GameStats

	emptySince time.Time
}

// NewRoom creates a room in the lobby phase with its host already seated.
// Only the session store constructs rooms.
func NewRoom(code string, log zerolog.Logger, clock Clock, broadcaster Broadcaster, questions QuestionRepository, recorder ScoreRecorder, hostName, avatar string) (*Room, string) {
	r := &Room{
		log:          log.With().Str("room", code).Logger(),
		clock:        clock,
		broadcaster:  broadcaster,
		questions:    questions,
		recorder:     recorder,
		code:         code,
		settings:     model.DefaultSettings(),
		phase:        model.PhaseLobby,
		readyForNext: make(map[string]bool),
		stats:        model.NewGameStats(),
	}
	host := r.newPlayer(hostName, avatar)
	host.Host = true
	r.players = append(r.players, host)
	return r, host.ID
}

func (r *Room) newPlayer(name, avatar string) *model.Player {
	return &model.Player{
		ID:        "p_" + uuid.New().String()[:8],
		Name:      name,
		Avatar:    avatar,
		Connected: true,
		JoinedAt:  r.clock.Now(),
	}
}

// Code returns the room's join code.
func (r *Room) Code() string { return r.code }

// roomRoster adapts the player list to the engine Roster contract. Engines
// only run with the room lock already held, so reads here are unguarded.
type roomRoster struct{ r *Room }

func (ro roomRoster) OrderedActiveIDs() []string {
	var ids []string
	for _, p := range ro.r.players {
		if p.Active() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (ro roomRoster) ConnectedActiveIDs() []string {
	var ids []string
	for _, p := range ro.r.players {
		if p.Active() && p.Connected {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (ro roomRoster) IsConnected(playerID string) bool {
	p := ro.r.playerByID(playerID)
	return p != nil && p.Connected && p.Active()
}

func (r *Room) playerByID(id string) *model.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer seats a new player. Joining is only possible before the game
// starts; mid-game only reconnection is allowed.
func (r *Room) AddPlayer(name, avatar string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != model.PhaseLobby {
		return "", ErrGameStarted
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return "", ErrRoomFull
	}
	p := r.newPlayer(name, avatar)
	r.players = append(r.players, p)
	r.emptySince = time.Time{}
	r.broadcastState()
	return p.ID, nil
}

// Reconnect restores a previously disconnected player.
func (r *Room) Reconnect(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.Connected = true
	p.DisconnectedAt = time.Time{}
	// Past the grace window the seat was released from turn order; coming
	// back still restores the player for everything that follows.
	p.Removed = false
	r.emptySince = time.Time{}
	if r.engine != nil {
		r.engine.ConnectivityChanged()
	}
	r.broadcastState()
	return nil
}

// Disconnect marks a player disconnected-pending-grace. Scoring and turn
// order treat them as unavailable, but nothing is erased yet.
func (r *Room) Disconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil || !p.Connected {
		return
	}
	now := r.clock.Now()
	p.Connected = false
	p.DisconnectedAt = now

	if r.engine != nil {
		// Inside the grace window the player keeps their seat; the engine
		// only re-checks what connectivity gates, e.g. a question round
		// whose last missing answer was this player's.
		r.engine.ConnectivityChanged()
		if r.engine.IsComplete() {
			r.completeRound()
		}
	}

	if r.connectedCount() == 0 {
		r.emptySince = now
	}
	r.broadcastState()
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// EmptySince returns when the room last lost its final connected player, or
// the zero time while anyone is connected.
func (r *Room) EmptySince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emptySince
}

// Terminated reports whether the room has reached its final state.
func (r *Room) Terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase == model.PhaseTerminated
}

// ExpireGrace releases the seats of players whose disconnect grace ran out:
// in the lobby they are dropped entirely, mid-game they leave the turn order
// but keep their score on the board. The host flag moves to the
// longest-connected remaining player.
func (r *Room) ExpireGrace(now time.Time, grace time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	kept := r.players[:0]
	for _, p := range r.players {
		expired := !p.Connected && p.Active() && !p.DisconnectedAt.IsZero() && now.Sub(p.DisconnectedAt) >= grace
		if !expired {
			kept = append(kept, p)
			continue
		}
		changed = true
		r.broadcaster.ToPlayer(r.code, p.ID, "kicked_from_room", map[string]string{"reason": "grace_expired"})
		if r.phase == model.PhaseLobby {
			continue // dropped entirely
		}
		p.Removed = true
		p.Host = false
		kept = append(kept, p)
		if r.engine != nil {
			r.engine.PlayerRemoved(p.ID)
		}
	}
	r.players = kept

	if !changed {
		return
	}
	r.ensureHost()
	if r.engine != nil && r.engine.IsComplete() {
		r.completeRound()
	}
	r.broadcastState()
}

// ensureHost keeps the exactly-one-host invariant whenever players change.
func (r *Room) ensureHost() {
	for _, p := range r.players {
		if p.Host && p.Active() {
			return
		}
	}
	for _, p := range r.players {
		if p.Connected && p.Active() {
			p.Host = true
			return
		}
	}
}

// HandleUpdateSettings replaces the room settings. Host only, lobby only.
func (r *Room) HandleUpdateSettings(playerID string, settings model.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.Host {
		return ErrNotHost
	}
	if r.phase != model.PhaseLobby {
		return ErrStateConflict
	}
	if settings.MaxPlayers < len(r.players) {
		settings.MaxPlayers = len(r.players)
	}
	r.settings = settings
	r.broadcastState()
	return nil
}

// HandleStartGame begins the game. Host only, lobby only.
func (r *Room) HandleStartGame(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.Host {
		return ErrNotHost
	}
	if r.phase != model.PhaseLobby {
		return ErrGameStarted
	}
	r.roundIdx = 0
	r.stats = model.NewGameStats()
	r.enterCategorySelection()
	return nil
}

func (r *Room) enterCategorySelection() {
	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()
	categories, err := r.questions.GetCategoryList(ctx)
	if err != nil || len(categories) == 0 {
		r.log.Error().Err(err).Msg("no categories available")
		r.phase = model.PhaseLobby
		r.broadcastState()
		return
	}
	if len(categories) > categoryChoices {
		categories = categories[:categoryChoices]
	}
	r.phase = model.PhaseCategorySelection
	r.categories = categories
	r.categoryVotes = make(map[string]string)
	r.selectionDeadline = r.clock.Now().Add(categorySelectionTime)
	r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
	r.broadcastState()
}

// HandleVoteCategory records a category vote. The vote resolves when every
// connected player has voted or the selection deadline passes.
func (r *Room) HandleVoteCategory(playerID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != model.PhaseCategorySelection {
		return ErrStateConflict
	}
	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !r.offeredCategory(categoryID) {
		return ErrValidation
	}
	r.categoryVotes[playerID] = categoryID

	if r.allConnectedVoted() {
		r.resolveCategoryVote()
	} else {
		r.broadcastState()
	}
	return nil
}

func (r *Room) offeredCategory(id string) bool {
	for _, c := range r.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (r *Room) allConnectedVoted() bool {
	for _, p := range r.players {
		if p.Connected && p.Active() {
			if _, ok := r.categoryVotes[p.ID]; !ok {
				return false
			}
		}
	}
	return len(r.categoryVotes) > 0
}

// resolveCategoryVote picks the plurality winner. The host's vote breaks
// ties; failing that, the category offered first wins.
func (r *Room) resolveCategoryVote() {
	counts := make(map[string]int)
	for _, c := range r.categoryVotes {
		counts[c]++
	}
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	var winner model.Category
	hostVote := ""
	for _, p := range r.players {
		if p.Host {
			hostVote = r.categoryVotes[p.ID]
		}
	}
	for _, c := range r.categories {
		if counts[c.ID] != best {
			continue
		}
		if winner.ID == "" {
			winner = c
		}
		if c.ID == hostVote {
			winner = c
			break
		}
	}
	if winner.ID == "" {
		winner = r.categories[0]
	}
	r.broadcaster.ToRoom(r.code, "category_selected", model.CategorySelectedPayload{Category: winner})
	r.startRound(winner.ID)
}

func (r *Room) startRound(categoryID string) {
	roundType := r.settings.RoundTypeAt(r.roundIdx)
	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()

	roster := roomRoster{r}
	var engine RoundEngine
	switch roundType {
	case model.RoundHotButton:
		qs, err := r.questions.GetQuestionsForCategory(ctx, categoryID, r.settings.HotButtonQuestions, r.usedQuestionIDs)
		if err != nil || len(qs) == 0 {
			r.abortRound(err)
			return
		}
		for _, q := range qs {
			r.usedQuestionIDs = append(r.usedQuestionIDs, q.ID)
		}
		engine = NewHotButtonRound(qs, roster, r.clock,
			time.Duration(r.settings.AnswerSeconds)*time.Second,
			time.Duration(r.settings.HotButtonAnswerSeconds)*time.Second,
			r.settings.MatchThreshold)
	case model.RoundCollectiveList:
		task, err := r.questions.GetListTask(ctx, categoryID, r.usedListIDs)
		if err != nil || task == nil {
			r.abortRound(err)
			return
		}
		r.usedListIDs = append(r.usedListIDs, task.ID)
		engine = NewCollectiveListRound(task, roster, r.clock,
			time.Duration(r.settings.ListTurnSeconds)*time.Second,
			r.settings.ListLives,
			r.settings.MatchThreshold)
	default:
		qs, err := r.questions.GetQuestionsForCategory(ctx, categoryID, 1, r.usedQuestionIDs)
		if err != nil || len(qs) == 0 {
			r.abortRound(err)
			return
		}
		r.usedQuestionIDs = append(r.usedQuestionIDs, qs[0].ID)
		engine = NewQuestionRound(qs[0], roster, r.clock,
			time.Duration(r.settings.AnswerSeconds)*time.Second)
	}

	r.engine = engine
	r.phase = model.PhaseFor(roundType)
	engine.Start(r.clock.Now())
	r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
	if engine.IsComplete() {
		// Degenerate payloads (empty batch, empty list) finish immediately.
		r.completeRound()
	}
	r.broadcastState()
}

// abortRound handles a question bank failure: the round cannot start, so the
// room falls back to category selection and players vote again. A fault here
// never takes the room down.
func (r *Room) abortRound(err error) {
	r.log.Error().Err(err).Int("round", r.roundIdx).Msg("round payload unavailable")
	r.enterCategorySelection()
}

// HandleSubmit routes a round submission to the active engine.
func (r *Room) HandleSubmit(playerID string, payload SubmitPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.phase.InRound() || r.engine == nil {
		return ErrStateConflict
	}
	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.Connected || !p.Active() {
		return ErrStateConflict
	}

	out, err := r.engine.Submit(playerID, payload)
	if err != nil {
		return err
	}

	if out.BuzzWon {
		r.broadcaster.ToRoom(r.code, "hot_button_buzz", model.BuzzPayload{
			PlayerID:      playerID,
			QuestionIndex: r.engine.State().QuestionIndex,
		})
	}
	if r.engine.IsComplete() {
		r.completeRound()
	}
	r.broadcastState()
	return nil
}

// completeRound collects the engine result, applies scoring, and moves the
// room to the reveal phase. Caller holds the lock.
func (r *Room) completeRound() {
	result := r.engine.Finalize()
	r.engine = nil

	deltas := score.RoundDeltas(result)
	score.Apply(r.players, deltas)
	r.recordStats(result)
	r.lastRanking = score.Rank(r.players)
	if r.recorder != nil {
		r.recorder.RecordScores(r.code, r.lastRanking)
	}

	switch result.Type {
	case model.RoundQuestion:
		payload := model.RevealPayload{Question: result.Question, Outcomes: result.QuestionOutcomes}
		if result.Question != nil {
			payload.Correct = result.Question.CorrectIndex
			payload.Value = result.Question.CorrectValue
		}
		r.broadcaster.ToRoom(r.code, "answer_reveal", payload)
	case model.RoundHotButton:
		r.broadcaster.ToRoom(r.code, "hot_button_end", model.HotButtonEndPayload{Outcomes: result.HotButtonOutcomes})
	case model.RoundCollectiveList:
		guesses := make([]model.GuessedItem, 0, len(result.ListGuesses))
		for _, item := range result.ListItems {
			if guesser, ok := result.ListGuesses[item.ID]; ok {
				guesses = append(guesses, model.GuessedItem{Item: item, PlayerID: guesser})
			}
		}
		r.broadcaster.ToRoom(r.code, "collective_list_end", model.ListEndPayload{
			Reason:  result.ListEndReason,
			Winners: result.ListWinners,
			Items:   result.ListItems,
			Guesses: guesses,
		})
	}

	r.stats.RoundsPlayed++
	r.phase = model.PhaseReveal
	r.readyForNext = make(map[string]bool)
	r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
}

func (r *Room) recordStats(result model.RoundResult) {
	switch result.Type {
	case model.RoundQuestion:
		for _, o := range result.QuestionOutcomes {
			if o.Correct {
				r.stats.CorrectAnswers[o.PlayerID]++
			}
		}
	case model.RoundHotButton:
		for _, o := range result.HotButtonOutcomes {
			if o.WinnerID == "" {
				continue
			}
			r.stats.BuzzWins[o.WinnerID]++
			if o.Correct {
				r.stats.CorrectAnswers[o.WinnerID]++
			}
		}
	case model.RoundCollectiveList:
		for _, guesser := range result.ListGuesses {
			r.stats.ItemsGuessed[guesser]++
		}
	}
}

// HandleNext advances past reveal and scoreboard. Gated to the host, or to
// all-connected consensus when hostOnlyAdvance is off.
func (r *Room) HandleNext(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if r.phase != model.PhaseReveal && r.phase != model.PhaseScoreboard {
		return ErrStateConflict
	}

	if r.settings.HostOnlyAdvance {
		if !p.Host {
			return ErrNotHost
		}
	} else {
		r.readyForNext[playerID] = true
		for _, q := range r.players {
			if q.Connected && q.Active() && !r.readyForNext[q.ID] {
				r.broadcastState()
				return nil
			}
		}
	}
	r.advance()
	return nil
}

func (r *Room) advance() {
	r.readyForNext = make(map[string]bool)
	switch r.phase {
	case model.PhaseReveal:
		r.phase = model.PhaseScoreboard
		r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
		r.broadcastState()
	case model.PhaseScoreboard:
		r.roundIdx++
		if r.roundIdx >= r.settings.Rounds {
			r.enterGameOver()
			return
		}
		r.enterCategorySelection()
	}
}

func (r *Room) enterGameOver() {
	r.phase = model.PhaseGameOver
	r.lastRanking = score.Rank(r.players)
	r.broadcaster.ToRoom(r.code, "game_over", model.GameOverPayload{
		Ranking: r.lastRanking,
		Stats:   r.stats,
	})
	r.phase = model.PhaseRematchPending
	r.rematchVotes = make(map[string]bool)
	r.rematchDeadline = r.clock.Now().Add(rematchVoteTime)
	r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
	r.broadcastState()
}

// HandleVoteRematch records a rematch vote. Majority yes among connected
// players replays the room; a tie counts as no.
func (r *Room) HandleVoteRematch(playerID string, yes bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != model.PhaseRematchPending {
		return ErrStateConflict
	}
	p := r.playerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	r.rematchVotes[playerID] = yes

	for _, q := range r.players {
		if q.Connected && q.Active() {
			if _, ok := r.rematchVotes[q.ID]; !ok {
				r.broadcastState()
				return nil
			}
		}
	}
	r.resolveRematch()
	return nil
}

func (r *Room) resolveRematch() {
	yes, no := 0, 0
	connected := 0
	for _, p := range r.players {
		if !p.Connected || !p.Active() {
			continue
		}
		connected++
		if v, ok := r.rematchVotes[p.ID]; ok {
			if v {
				yes++
			} else {
				no++
			}
		}
	}
	accepted := yes*2 > connected // tie resolves to no

	r.broadcaster.ToRoom(r.code, "rematch_result", model.RematchResultPayload{
		Accepted: accepted,
		Yes:      yes,
		No:       no,
	})

	if !accepted {
		r.phase = model.PhaseTerminated
		r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
		r.broadcastState()
		return
	}

	// Recycle: scores reset, seats kept, removed players dropped.
	kept := r.players[:0]
	for _, p := range r.players {
		if !p.Active() {
			continue
		}
		p.Score = 0
		kept = append(kept, p)
	}
	r.players = kept
	r.ensureHost()
	r.roundIdx = 0
	r.stats = model.NewGameStats()
	r.lastRanking = nil
	r.usedQuestionIDs = nil
	r.usedListIDs = nil
	r.phase = model.PhaseLobby
	r.broadcaster.ToRoom(r.code, "phase_change", map[string]any{"phase": r.phase})
	r.broadcastState()
}

// roundFingerprint captures the observable round fields a tick can change,
// so Tick only rebroadcasts when something actually moved.
type roundFingerprint struct {
	deadline time.Time
	question int
	buzzer   string
	active   string
	guessed  int
	elims    int
}

func fingerprint(s model.RoundState) roundFingerprint {
	fp := roundFingerprint{
		question: s.QuestionIndex,
		buzzer:   s.BuzzWinnerID,
		active:   s.ActivePlayerID,
		guessed:  len(s.GuessedItems),
		elims:    len(s.Eliminated),
	}
	if s.Deadline != nil {
		fp.deadline = *s.Deadline
	}
	return fp
}

// Tick drives every deadline of the room. Ticks that fire after the thing
// they guarded already happened are no-ops.
func (r *Room) Tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.phase == model.PhaseCategorySelection:
		if now.Before(r.selectionDeadline) {
			return
		}
		if len(r.categoryVotes) > 0 {
			r.resolveCategoryVote()
		} else {
			// Nobody voted yet; keep the phase open another window.
			r.selectionDeadline = now.Add(categorySelectionTime)
			r.broadcastState()
		}
	case r.phase.InRound() && r.engine != nil:
		before := fingerprint(r.engine.State())
		r.engine.Tick(now)
		if r.engine.IsComplete() {
			r.completeRound()
			r.broadcastState()
			return
		}
		if fingerprint(r.engine.State()) != before {
			r.broadcastState()
		}
	case r.phase == model.PhaseRematchPending:
		if !now.Before(r.rematchDeadline) {
			r.resolveRematch()
		}
	}
}

// Snapshot assembles the full room view broadcast as room_update.
func (r *Room) Snapshot() model.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() model.RoomSnapshot {
	snap := model.RoomSnapshot{
		Code:       r.code,
		Phase:      r.phase,
		Settings:   r.settings,
		RoundIndex: r.roundIdx,
		RoundCount: r.settings.Rounds,
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, *p)
		if p.Host {
			snap.HostID = p.ID
		}
	}
	switch {
	case r.phase == model.PhaseCategorySelection:
		snap.Categories = r.categories
		snap.CategoryVotes = r.categoryVotes
		deadline := r.selectionDeadline
		snap.Deadline = &deadline
	case r.phase.InRound() && r.engine != nil:
		state := r.engine.State()
		snap.Round = &state
		snap.Deadline = state.Deadline
	case r.phase == model.PhaseRematchPending:
		deadline := r.rematchDeadline
		snap.Deadline = &deadline
		snap.Ranking = r.lastRanking
	case r.phase == model.PhaseReveal || r.phase == model.PhaseScoreboard || r.phase == model.PhaseGameOver:
		snap.Ranking = r.lastRanking
	}
	return snap
}

func (r *Room) broadcastState() {
	r.broadcaster.ToRoom(r.code, "room_update", r.snapshotLocked())
}
