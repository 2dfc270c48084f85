package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteStageHandler_PreventsDuplicateVotes(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")

	req := VoteRequest{VoterID: "p1", TargetID: "p2"}

	room = mustApply(t, gm, room, req)
	assert.Equal(t, "p2", room.Votes["p1"])

	again, err := gm.Apply(room, req)
	require.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Same(t, room, again)
	assert.Len(t, room.Votes, 1)
}

func TestVote_RejectsNonPlayers(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")

	_, err := gm.Apply(room, VoteRequest{VoterID: "ghost", TargetID: "p2"})
	assert.ErrorIs(t, err, ErrNotAPlayer)

	_, err = gm.Apply(room, VoteRequest{VoterID: "p2", TargetID: "ghost"})
	assert.ErrorIs(t, err, ErrNotAPlayer)

	assert.Empty(t, room.Votes)
}

func TestVote_TieNeverEliminates(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 4, "p1")

	room = mustApply(t, gm, room, VoteRequest{VoterID: "p1", TargetID: "p3"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p2", TargetID: "p3"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p3", TargetID: "p4"})
	assert.Equal(t, PHASE_VOTING, room.Phase)

	room = mustApply(t, gm, room, VoteRequest{VoterID: "p4", TargetID: "p4"})

	assert.Equal(t, PHASE_DISCUSSION, room.Phase)
	assert.Empty(t, room.VotedOutID)
	assert.Empty(t, room.Votes)
	assert.Equal(t, 1, room.TieCount)
	for id, s := range room.Scores {
		assert.Zero(t, s, id)
	}
}

func TestVote_LiarExposedByMajority(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")

	room = mustApply(t, gm, room, VoteRequest{VoterID: "p1", TargetID: "p2"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p2", TargetID: "p1"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p3", TargetID: "p1"})

	assert.Equal(t, PHASE_LIAR_GUESS, room.Phase)
	assert.Equal(t, "p1", room.VotedOutID)
	assert.Equal(t, 0, room.Scores["p1"])
	assert.Equal(t, 1, room.Scores["p2"])
	assert.Equal(t, 1, room.Scores["p3"])
}

func TestVote_CivilianEliminatedLiarWins(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")

	room = mustApply(t, gm, room, VoteRequest{VoterID: "p1", TargetID: "p2"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p2", TargetID: "p3"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p3", TargetID: "p2"})

	assert.Equal(t, PHASE_RESULT, room.Phase)
	assert.Equal(t, WINNER_LIAR, room.RoundWinner)
	assert.Equal(t, "p2", room.VotedOutID)
	assert.Equal(t, 1, room.Scores["p1"])
	assert.Equal(t, 0, room.Scores["p2"])
}

func TestVote_LiarFailsGuess(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")

	room = mustApply(t, gm, room, VoteRequest{VoterID: "p1", TargetID: "p2"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p2", TargetID: "p1"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p3", TargetID: "p1"})
	require.Equal(t, PHASE_LIAR_GUESS, room.Phase)

	_, err := gm.Apply(room, LiarGuessRequest{UserID: "p2", Guess: "사과"})
	require.ErrorIs(t, err, ErrNotTheLiar)

	room = mustApply(t, gm, room, LiarGuessRequest{UserID: "p1", Guess: "바나나"})

	assert.Equal(t, PHASE_RESULT, room.Phase)
	assert.Equal(t, WINNER_CIVILIANS, room.RoundWinner)
	assert.Equal(t, map[string]int{"p1": 0, "p2": 1, "p3": 1}, room.Scores)
}

func TestVote_LiarGuessesWord(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 3, "p1")
	room.Phase = PHASE_LIAR_GUESS
	room.VotedOutID = "p1"

	room = mustApply(t, gm, room, LiarGuessRequest{UserID: "p1", Guess: "  사과 "})

	assert.Equal(t, WINNER_LIAR, room.RoundWinner)
	assert.Equal(t, 1, room.Scores["p1"])
}

func TestVote_TieCapEndsRound(t *testing.T) {
	gm := newTestMachine()
	room := newVotingRoom(t, 2, "p1")
	room.MaxTieRounds = 2

	room = mustApply(t, gm, room, VoteRequest{VoterID: "p1", TargetID: "p2"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p2", TargetID: "p1"})
	require.Equal(t, PHASE_DISCUSSION, room.Phase)

	room = mustApply(t, gm, room, StartVotingRequest{UserID: "p1"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p1", TargetID: "p2"})
	room = mustApply(t, gm, room, VoteRequest{VoterID: "p2", TargetID: "p1"})

	assert.Equal(t, PHASE_RESULT, room.Phase)
	assert.Equal(t, WINNER_LIAR, room.RoundWinner)
	assert.Equal(t, 1, room.Scores["p1"])
	assert.Empty(t, room.VotedOutID)
}

func TestTallyVotes(t *testing.T) {
	tally := TallyVotes(map[string]string{"a": "x", "b": "y", "c": "x", "d": "y", "e": "z"})

	assert.Equal(t, 2, tally.MaxCount)
	assert.Equal(t, []string{"x", "y"}, tally.Candidates)
	assert.Equal(t, 1, tally.Counts["z"])
}
