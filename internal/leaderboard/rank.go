package leaderboard

import "sort"

// ParticipantRow is a ranked standing.
type ParticipantRow struct {
	Standing
	Rank int
}

// Rank orders standings by points (desc), problems solved (desc), credited
// before uncredited, total time (asc), then creation sequence and student ID
// so identical input always yields the identical order. Rows that tie on the
// scoring keys share a rank.
func Rank(standings map[uint]Standing) []ParticipantRow {
	rows := make([]ParticipantRow, 0, len(standings))
	for _, standing := range standings {
		rows = append(rows, ParticipantRow{Standing: standing})
	}

	sort.Slice(rows, func(i, j int) bool {
		return less(rows[i].Standing, rows[j].Standing)
	})

	for idx := range rows {
		if idx > 0 && sameScore(rows[idx-1].Standing, rows[idx].Standing) {
			rows[idx].Rank = rows[idx-1].Rank
			continue
		}
		rows[idx].Rank = idx + 1
	}

	return rows
}

func less(a, b Standing) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	if a.ProblemsSolved != b.ProblemsSolved {
		return a.ProblemsSolved > b.ProblemsSolved
	}
	if a.Credited != b.Credited {
		return a.Credited
	}
	if a.Credited && a.TotalTime != b.TotalTime {
		return a.TotalTime < b.TotalTime
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	return a.StudentID < b.StudentID
}

func sameScore(a, b Standing) bool {
	if a.TotalPoints != b.TotalPoints || a.ProblemsSolved != b.ProblemsSolved || a.Credited != b.Credited {
		return false
	}
	return !a.Credited || a.TotalTime == b.TotalTime
}
