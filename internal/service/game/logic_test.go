package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRound_DrawsLiarWordAndOrder(t *testing.T) {
	gm := newTestMachine(WithRand(zeroRand{}))
	room := newLobby(t, gm, 3)

	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})

	assert.Equal(t, PHASE_REVEAL, room.Phase)
	assert.Equal(t, 1, room.Round)
	assert.Equal(t, "p1", room.LiarID)
	assert.Equal(t, "코끼리", room.SecretWord)
	assert.Equal(t, "동물", room.TopicName)
	assert.Equal(t, []string{"p2", "p3", "p1"}, room.TurnOrder)
	assert.Zero(t, room.CurrentTurnIndex)
	assert.Empty(t, room.Descriptions)
	assert.Empty(t, room.Votes)
}

func TestStartRound_UsesChosenTopic(t *testing.T) {
	gm := newTestMachine()
	room := newLobby(t, gm, 4)

	room = mustApply(t, gm, room, SetTopicRequest{UserID: "p1", Category: "sports"})
	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})

	assert.Equal(t, "스포츠", room.TopicName)
	assert.Contains(t, topics["sports"].Words, room.SecretWord)
	assert.Contains(t, room.Players, room.LiarID)
	assert.ElementsMatch(t, room.PlayerIDs(), room.TurnOrder)
}

func TestSetTopic_Guards(t *testing.T) {
	gm := newTestMachine()
	room := newLobby(t, gm, 2)

	_, err := gm.Apply(room, SetTopicRequest{UserID: "p2", Category: "food"})
	assert.ErrorIs(t, err, ErrHostOnly)

	_, err = gm.Apply(room, SetTopicRequest{UserID: "p1", Category: "planets"})
	assert.ErrorIs(t, err, ErrUnknownTopic)

	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})
	_, err = gm.Apply(room, SetTopicRequest{UserID: "p1", Category: "food"})
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestHostOnlyTransitions(t *testing.T) {
	gm := newTestMachine()
	room := newLobby(t, gm, 2)

	_, err := gm.Apply(room, StartRoundRequest{UserID: "p2"})
	assert.ErrorIs(t, err, ErrHostOnly)

	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})
	_, err = gm.Apply(room, ConfirmRevealRequest{UserID: "p2"})
	assert.ErrorIs(t, err, ErrHostOnly)

	_, err = gm.Apply(room, ResetRoomRequest{UserID: "p2"})
	assert.ErrorIs(t, err, ErrHostOnly)
}

func TestDescribe_TurnExclusivity(t *testing.T) {
	gm := newTestMachine(WithRand(zeroRand{}))
	room := newLobby(t, gm, 3)

	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})
	room = mustApply(t, gm, room, ConfirmRevealRequest{UserID: "p1"})
	require.Equal(t, PHASE_DESCRIBING, room.Phase)
	require.Equal(t, "p2", room.CurrentTurnID())

	_, err := gm.Apply(room, DescribeRequest{UserID: "p3", Text: "둥글어요"})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = gm.Apply(room, DescribeRequest{UserID: "p2", Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)

	// 同一个快照上的两个提交只有轮到的那个能成功
	fromP2, errP2 := gm.Apply(room, DescribeRequest{UserID: "p2", Text: "커요"})
	_, errP1 := gm.Apply(room, DescribeRequest{UserID: "p1", Text: "몰라요"})
	require.NoError(t, errP2)
	assert.ErrorIs(t, errP1, ErrNotYourTurn)

	room = fromP2
	assert.Equal(t, 1, room.CurrentTurnIndex)
	assert.Equal(t, []Description{{UserID: "p2", Name: "P2", Text: "커요"}}, room.Descriptions)

	// 旧轮次的重复提交会被拒绝
	_, err = gm.Apply(room, DescribeRequest{UserID: "p2", Text: "커요"})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	room = mustApply(t, gm, room, DescribeRequest{UserID: "p3", Text: "회색"})
	room = mustApply(t, gm, room, DescribeRequest{UserID: "p1", Text: "음..."})

	assert.Equal(t, PHASE_DISCUSSION, room.Phase)
	assert.Len(t, room.Descriptions, 3)
	assert.Empty(t, room.CurrentTurnID())
}

func TestDescribe_PhaseVersionAdvancesPerTurn(t *testing.T) {
	gm := newTestMachine(WithRand(zeroRand{}))
	room := newLobby(t, gm, 2)

	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})
	room = mustApply(t, gm, room, ConfirmRevealRequest{UserID: "p1"})
	before := room.PhaseVersion

	room = mustApply(t, gm, room, DescribeRequest{UserID: room.CurrentTurnID(), Text: "a"})
	assert.Greater(t, room.PhaseVersion, before)
}

func TestStartVoting_ClearsVotes(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p2")
	room.Phase = PHASE_DISCUSSION
	room.Votes = map[string]string{"p1": "p2"}

	room = mustApply(t, gm, room, StartVotingRequest{UserID: "p1"})

	assert.Equal(t, PHASE_VOTING, room.Phase)
	assert.Empty(t, room.Votes)
}

func TestMatchEndGating(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")
	room.Phase = PHASE_RESULT
	room.RoundWinner = WINNER_LIAR
	room.Scores["p1"] = 3

	_, err := gm.Apply(room, NextRoundRequest{UserID: "p1"})
	require.ErrorIs(t, err, ErrMatchOver)

	_, err = gm.Apply(room, StartRoundRequest{UserID: "p1"})
	require.ErrorIs(t, err, ErrMatchOver)

	room = mustApply(t, gm, room, ResetRoomRequest{UserID: "p1"})

	assert.Equal(t, PHASE_LOBBY, room.Phase)
	assert.Equal(t, map[string]int{"p1": 0, "p2": 0, "p3": 0}, room.Scores)
	assert.Empty(t, room.SecretWord)
	assert.Empty(t, room.LiarID)
	assert.Empty(t, room.Descriptions)
	assert.Empty(t, room.Votes)
	assert.Zero(t, room.Round)
}

func TestNextRound_StartsFreshRound(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")
	room.Phase = PHASE_RESULT
	room.VotedOutID = "p2"
	room.RoundWinner = WINNER_LIAR
	room.Scores["p1"] = 1
	room.Descriptions = []Description{{UserID: "p1", Name: "P1", Text: "x"}}

	room = mustApply(t, gm, room, NextRoundRequest{UserID: "p1"})

	assert.Equal(t, PHASE_REVEAL, room.Phase)
	assert.Equal(t, 2, room.Round)
	assert.Empty(t, room.VotedOutID)
	assert.Empty(t, room.RoundWinner)
	assert.Empty(t, room.Descriptions)
	assert.Equal(t, 1, room.Scores["p1"])
}

func TestWrongPhaseIsRejectedWithoutChange(t *testing.T) {
	gm := newTestMachine()
	room := newLobby(t, gm, 3)
	before := room.Clone()

	for _, ev := range []Event{
		ConfirmRevealRequest{UserID: "p1"},
		DescribeRequest{UserID: "p1", Text: "x"},
		StartVotingRequest{UserID: "p1"},
		VoteRequest{VoterID: "p1", TargetID: "p2"},
		LiarGuessRequest{UserID: "p1", Guess: "x"},
		NextRoundRequest{UserID: "p1"},
	} {
		next, err := gm.Apply(room, ev)
		assert.ErrorIs(t, err, ErrWrongPhase, ev.ReqType())
		assert.True(t, IsRejection(err))
		assert.Same(t, room, next)
	}

	assert.Equal(t, before, room)
}

func TestFullRound(t *testing.T) {
	gm := newTestMachine(WithRand(zeroRand{}))
	room := newLobby(t, gm, 3)

	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})
	room = mustApply(t, gm, room, ConfirmRevealRequest{UserID: "p1"})

	for room.Phase == PHASE_DESCRIBING {
		room = mustApply(t, gm, room, DescribeRequest{UserID: room.CurrentTurnID(), Text: "힌트"})
	}
	require.Equal(t, PHASE_DISCUSSION, room.Phase)

	room = mustApply(t, gm, room, StartVotingRequest{UserID: "p1"})
	for _, voter := range []string{"p1", "p2", "p3"} {
		room = mustApply(t, gm, room, VoteRequest{VoterID: voter, TargetID: "p1"})
	}
	require.Equal(t, PHASE_LIAR_GUESS, room.Phase)

	room = mustApply(t, gm, room, LiarGuessRequest{UserID: "p1", Guess: "코끼리"})
	assert.Equal(t, PHASE_RESULT, room.Phase)
	assert.Equal(t, WINNER_LIAR, room.RoundWinner)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1, "p3": 1}, room.Scores)
}

func TestResetRoom_FromAnyPhase(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p2")
	room.Scores["p1"] = 2
	room.Scores["p3"] = 3
	room.Votes["p1"] = "p2"

	_, err := gm.Apply(room, ResetRoomRequest{UserID: "p3"})
	assert.ErrorIs(t, err, ErrHostOnly)

	before := room.PhaseVersion
	room = mustApply(t, gm, room, ResetRoomRequest{UserID: "p1"})

	assert.Equal(t, PHASE_LOBBY, room.Phase)
	assert.Greater(t, room.PhaseVersion, before)
	assert.Zero(t, room.Round)
	assert.Empty(t, room.SecretWord)
	assert.Empty(t, room.LiarID)
	assert.Empty(t, room.Votes)
	assert.Empty(t, room.TurnOrder)
	for id, score := range room.Scores {
		assert.Zero(t, score, id)
	}
	assert.Len(t, room.Players, 3)
}

func TestStartRound_LobbyRefusedWhenMatchOver(t *testing.T) {
	gm := newTestMachine()
	room := newLobby(t, gm, 3)
	room.MaxScore = 1
	room.Scores["p2"] = 1

	_, err := gm.Apply(room, StartRoundRequest{UserID: "p1"})
	assert.ErrorIs(t, err, ErrMatchOver)

	room = mustApply(t, gm, room, ResetRoomRequest{UserID: "p1"})
	room = mustApply(t, gm, room, StartRoundRequest{UserID: "p1"})
	assert.Equal(t, PHASE_REVEAL, room.Phase)
}
