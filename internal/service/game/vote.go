package game

import "sort"

type VoteTally struct {
	Counts     map[string]int
	MaxCount   int
	Candidates []string
}

// TallyVotes 计票并找出得票最多的候选人（可能不止一个）
func TallyVotes(votes map[string]string) VoteTally {
	tally := VoteTally{
		Counts:     make(map[string]int),
		Candidates: make([]string, 0),
	}

	for _, target := range votes {
		tally.Counts[target]++
	}

	for target, n := range tally.Counts {
		switch {
		case n > tally.MaxCount:
			tally.MaxCount = n
			tally.Candidates = []string{target}
		case n == tally.MaxCount:
			tally.Candidates = append(tally.Candidates, target)
		}
	}

	sort.Strings(tally.Candidates)

	return tally
}

func castVote(ctx *StageContext, req VoteRequest) error {
	room := ctx.Room

	if !room.IsPlayer(req.VoterID) {
		return ErrNotAPlayer
	}
	if _, voted := room.Votes[req.VoterID]; voted {
		return ErrAlreadyVoted
	}
	if !room.IsPlayer(req.TargetID) {
		return ErrNotAPlayer
	}

	room.Votes[req.VoterID] = req.TargetID

	if votingComplete(room) {
		resolveVotes(ctx)
	}

	return nil
}

func votingComplete(room *Room) bool {
	return len(room.Players) > 0 && len(room.Votes) >= len(room.Players)
}

// resolveVotes 在最后一票落下的同一个事务里结算。
// 先判平票再判淘汰：平票永远不淘汰任何人
func resolveVotes(ctx *StageContext) {
	room := ctx.Room
	tally := TallyVotes(room.Votes)

	if len(tally.Candidates) != 1 {
		room.TieCount++
		room.Votes = make(map[string]string)

		// 连续平票达到上限时视为卧底成功隐藏
		if room.MaxTieRounds > 0 && room.TieCount >= room.MaxTieRounds {
			room.Scores[room.LiarID]++
			room.RoundWinner = WINNER_LIAR
			ctx.SwitchTo(PHASE_RESULT)
			return
		}

		ctx.SwitchTo(PHASE_DISCUSSION)
		return
	}

	eliminated := tally.Candidates[0]
	room.VotedOutID = eliminated

	if eliminated == room.LiarID {
		for id := range room.Players {
			if id != room.LiarID {
				room.Scores[id]++
			}
		}

		ctx.SwitchTo(PHASE_LIAR_GUESS)
		return
	}

	room.Scores[room.LiarID]++
	room.RoundWinner = WINNER_LIAR
	ctx.SwitchTo(PHASE_RESULT)
}
