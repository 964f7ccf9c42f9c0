package ws

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/game"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/service"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/session"
)

// Validation limits for client-supplied strings.
const (
	maxNameLen   = 24
	maxAvatarLen = 256
	maxAnswerLen = 200
)

var codePattern = regexp.MustCompile(`^[A-HJ-NP-TV-Z2-9]{4}$`)

// Gateway translates inbound wire events into engine calls and engine
// errors into direct replies. Invalid payloads are dropped with a warning
// and never reach a room.
type Gateway struct {
	store  *session.Store
	hub    *Hub
	tokens *service.ResumeTokens
	log    zerolog.Logger
}

// NewGateway creates the inbound message dispatcher.
func NewGateway(store *session.Store, hub *Hub, tokens *service.ResumeTokens, log zerolog.Logger) *Gateway {
	return &Gateway{store: store, hub: hub, tokens: tokens, log: log}
}

type createRoomMsg struct {
	PlayerName    string          `json:"playerName"`
	AvatarOptions string          `json:"avatarOptions,omitempty"`
	Settings      *model.Settings `json:"settings,omitempty"`
}

type joinRoomMsg struct {
	RoomCode      string `json:"roomCode"`
	PlayerName    string `json:"playerName"`
	AvatarOptions string `json:"avatarOptions,omitempty"`
}

type reconnectMsg struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	ResumeToken string `json:"resumeToken,omitempty"`
}

type updateSettingsMsg struct {
	RoomCode string         `json:"roomCode"`
	PlayerID string         `json:"playerId"`
	Settings model.Settings `json:"settings"`
}

type roomActionMsg struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type voteCategoryMsg struct {
	RoomCode   string `json:"roomCode"`
	PlayerID   string `json:"playerId"`
	CategoryID string `json:"categoryId"`
}

type submitAnswerMsg struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	AnswerIndex *int   `json:"answerIndex"`
}

type submitEstimationMsg struct {
	RoomCode string   `json:"roomCode"`
	PlayerID string   `json:"playerId"`
	Value    *float64 `json:"value"`
}

type textAnswerMsg struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
}

type voteRematchMsg struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Vote     string `json:"vote"`
}

type joinedPayload struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	ResumeToken string `json:"resumeToken,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dispatch validates one inbound frame and routes it to the engine.
func (g *Gateway) Dispatch(conn *Conn, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.log.Warn().Err(err).Msg("dropping unparseable message")
		return
	}

	switch msg.Type {
	case "create_room":
		g.handleCreateRoom(conn, msg.Payload)
	case "join_room":
		g.handleJoinRoom(conn, msg.Payload)
	case "reconnect_player":
		g.handleReconnect(conn, msg.Payload)
	case "update_settings":
		g.handleUpdateSettings(conn, msg.Payload)
	case "start_game":
		g.withRoom(conn, msg.Payload, msg.Type, func(room *game.Room, playerID string) error {
			return room.HandleStartGame(playerID)
		})
	case "vote_category":
		g.handleVoteCategory(conn, msg.Payload)
	case "submit_answer":
		g.handleSubmitAnswer(conn, msg.Payload)
	case "submit_estimation":
		g.handleSubmitEstimation(conn, msg.Payload)
	case "hot_button_buzz":
		g.withRoom(conn, msg.Payload, msg.Type, func(room *game.Room, playerID string) error {
			return room.HandleSubmit(playerID, game.SubmitPayload{Buzz: true})
		})
	case "hot_button_submit":
		g.handleTextAnswer(conn, msg.Payload, msg.Type)
	case "collective_list_submit":
		g.handleTextAnswer(conn, msg.Payload, msg.Type)
	case "collective_list_skip":
		g.withRoom(conn, msg.Payload, msg.Type, func(room *game.Room, playerID string) error {
			return room.HandleSubmit(playerID, game.SubmitPayload{Skip: true})
		})
	case "vote_rematch":
		g.handleVoteRematch(conn, msg.Payload)
	case "next":
		g.withRoom(conn, msg.Payload, msg.Type, func(room *game.Room, playerID string) error {
			return room.HandleNext(playerID)
		})
	default:
		g.log.Warn().Str("type", msg.Type).Msg("dropping unknown message type")
	}
}

// ConnectionClosed tears down a connection's registration. The grace timer
// only starts when this connection is still the seat's current one: the
// zombie socket a reconnect displaced must not mark the live seat
// disconnected while its pumps unwind.
func (g *Gateway) ConnectionClosed(conn *Conn) {
	if !conn.bound() {
		return
	}
	if g.hub.Unregister(conn) {
		g.store.Disconnect(conn.roomCode, conn.playerID)
	}
}

func (g *Gateway) handleCreateRoom(conn *Conn, payload json.RawMessage) {
	if conn.bound() {
		g.log.Warn().Str("player", conn.playerID).Msg("dropping create_room on bound connection")
		return
	}
	var msg createRoomMsg
	if err := json.Unmarshal(payload, &msg); err != nil || !validName(msg.PlayerName) || len(msg.AvatarOptions) > maxAvatarLen {
		g.log.Warn().Msg("dropping invalid create_room")
		return
	}
	room, hostID, err := g.store.CreateRoom(strings.TrimSpace(msg.PlayerName), msg.AvatarOptions)
	if err != nil {
		g.replyError(conn, err)
		return
	}
	if msg.Settings != nil {
		if err := room.HandleUpdateSettings(hostID, *msg.Settings); err != nil {
			g.log.Warn().Err(err).Msg("initial settings rejected")
		}
	}
	g.bind(conn, room, hostID)
}

func (g *Gateway) handleJoinRoom(conn *Conn, payload json.RawMessage) {
	if conn.bound() {
		g.log.Warn().Str("player", conn.playerID).Msg("dropping join_room on bound connection")
		return
	}
	var msg joinRoomMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.log.Warn().Msg("dropping invalid join_room")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(msg.RoomCode))
	if !codePattern.MatchString(code) || !validName(msg.PlayerName) || len(msg.AvatarOptions) > maxAvatarLen {
		g.log.Warn().Msg("dropping invalid join_room")
		return
	}
	room, playerID, err := g.store.JoinRoom(code, strings.TrimSpace(msg.PlayerName), msg.AvatarOptions)
	if err != nil {
		g.replyError(conn, err)
		return
	}
	g.bind(conn, room, playerID)
}

func (g *Gateway) handleReconnect(conn *Conn, payload json.RawMessage) {
	if conn.bound() {
		g.log.Warn().Str("player", conn.playerID).Msg("dropping reconnect_player on bound connection")
		return
	}
	var msg reconnectMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.log.Warn().Msg("dropping invalid reconnect_player")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(msg.RoomCode))
	if !codePattern.MatchString(code) || msg.PlayerID == "" {
		g.log.Warn().Msg("dropping invalid reconnect_player")
		return
	}
	if err := g.tokens.Validate(msg.ResumeToken, code, msg.PlayerID); err != nil {
		g.replyError(conn, err)
		return
	}
	room, err := g.store.Reconnect(code, msg.PlayerID)
	if err != nil {
		g.replyError(conn, err)
		return
	}
	g.bind(conn, room, msg.PlayerID)
}

// bind attaches a connection to its seat and hands the client its identity
// and a fresh room snapshot. The snapshot goes direct because the seat was
// not yet registered when the join broadcast went out.
func (g *Gateway) bind(conn *Conn, room *game.Room, playerID string) {
	conn.roomCode = room.Code()
	conn.playerID = playerID
	g.hub.Register(conn)

	token, err := g.tokens.Issue(room.Code(), playerID)
	if err != nil {
		g.log.Error().Err(err).Msg("resume token issue failed")
	}
	conn.reply("joined", joinedPayload{RoomCode: room.Code(), PlayerID: playerID, ResumeToken: token})
	conn.reply("room_update", room.Snapshot())
}

func (g *Gateway) handleUpdateSettings(conn *Conn, payload json.RawMessage) {
	var msg updateSettingsMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.log.Warn().Msg("dropping invalid update_settings")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, "update_settings")
	if !ok {
		return
	}
	if msg.Settings.Rounds < 1 || msg.Settings.Rounds > 20 || msg.Settings.MaxPlayers < 1 || msg.Settings.MaxPlayers > 32 {
		g.log.Warn().Msg("dropping update_settings with out-of-range values")
		return
	}
	if err := room.HandleUpdateSettings(conn.playerID, msg.Settings); err != nil {
		g.replyError(conn, err)
	}
}

func (g *Gateway) handleVoteCategory(conn *Conn, payload json.RawMessage) {
	var msg voteCategoryMsg
	if err := json.Unmarshal(payload, &msg); err != nil || msg.CategoryID == "" {
		g.log.Warn().Msg("dropping invalid vote_category")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, "vote_category")
	if !ok {
		return
	}
	if err := room.HandleVoteCategory(conn.playerID, msg.CategoryID); err != nil {
		g.replyError(conn, err)
	}
}

func (g *Gateway) handleSubmitAnswer(conn *Conn, payload json.RawMessage) {
	var msg submitAnswerMsg
	if err := json.Unmarshal(payload, &msg); err != nil || msg.AnswerIndex == nil {
		g.log.Warn().Msg("dropping invalid submit_answer")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, "submit_answer")
	if !ok {
		return
	}
	if err := room.HandleSubmit(conn.playerID, game.SubmitPayload{AnswerIndex: msg.AnswerIndex}); err != nil {
		g.replyError(conn, err)
	}
}

func (g *Gateway) handleSubmitEstimation(conn *Conn, payload json.RawMessage) {
	var msg submitEstimationMsg
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Value == nil {
		g.log.Warn().Msg("dropping invalid submit_estimation")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, "submit_estimation")
	if !ok {
		return
	}
	if err := room.HandleSubmit(conn.playerID, game.SubmitPayload{Estimate: msg.Value}); err != nil {
		g.replyError(conn, err)
	}
}

func (g *Gateway) handleTextAnswer(conn *Conn, payload json.RawMessage, msgType string) {
	var msg textAnswerMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.log.Warn().Str("type", msgType).Msg("dropping invalid text answer")
		return
	}
	answer := strings.TrimSpace(msg.Answer)
	if answer == "" || utf8.RuneCountInString(answer) > maxAnswerLen {
		g.log.Warn().Str("type", msgType).Msg("dropping out-of-bounds text answer")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, msgType)
	if !ok {
		return
	}
	if err := room.HandleSubmit(conn.playerID, game.SubmitPayload{Text: answer}); err != nil {
		g.replyError(conn, err)
	}
}

func (g *Gateway) handleVoteRematch(conn *Conn, payload json.RawMessage) {
	var msg voteRematchMsg
	if err := json.Unmarshal(payload, &msg); err != nil || (msg.Vote != "yes" && msg.Vote != "no") {
		g.log.Warn().Msg("dropping invalid vote_rematch")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, "vote_rematch")
	if !ok {
		return
	}
	if err := room.HandleVoteRematch(conn.playerID, msg.Vote == "yes"); err != nil {
		g.replyError(conn, err)
	}
}

// withRoom handles the messages whose payload is just the seat identity.
func (g *Gateway) withRoom(conn *Conn, payload json.RawMessage, msgType string, fn func(room *game.Room, playerID string) error) {
	var msg roomActionMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		g.log.Warn().Str("type", msgType).Msg("dropping invalid message")
		return
	}
	room, ok := g.authorize(conn, msg.RoomCode, msg.PlayerID, msgType)
	if !ok {
		return
	}
	if err := fn(room, conn.playerID); err != nil {
		g.replyError(conn, err)
	}
}

// authorize checks that the claimed seat matches the connection's binding
// and resolves the target room. Mismatches are dropped, not answered: a
// client claiming someone else's seat gets silence.
func (g *Gateway) authorize(conn *Conn, roomCode, playerID, msgType string) (*game.Room, bool) {
	if !conn.bound() {
		g.log.Warn().Str("type", msgType).Msg("dropping message from unbound connection")
		return nil, false
	}
	if !strings.EqualFold(roomCode, conn.roomCode) || playerID != conn.playerID {
		g.log.Warn().
			Str("type", msgType).
			Str("claimed", playerID).
			Str("bound", conn.playerID).
			Msg("dropping message with mismatched identity")
		return nil, false
	}
	room, ok := g.store.Get(conn.roomCode)
	if !ok {
		g.replyError(conn, game.ErrRoomNotFound)
		return nil, false
	}
	return room, true
}

func (g *Gateway) replyError(conn *Conn, err error) {
	conn.reply("error", errorPayload{Code: errorCode(err), Message: err.Error()})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrGameStarted):
		return "game_already_started"
	case errors.Is(err, game.ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, game.ErrCapacity):
		return "capacity_exceeded"
	case errors.Is(err, service.ErrInvalidToken):
		return "invalid_token"
	default:
		return "internal_error"
	}
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= maxNameLen
}
