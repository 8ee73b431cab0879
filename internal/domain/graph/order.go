package graph

import "strings"

// Node is a player with the number of matches they appeared in.
type Node struct {
	Name    string `json:"name" bson:"name"`
	Matches int    `json:"matches" bson:"matches"`
}

// Edge is a partnership with the number of matches both players appeared in.
type Edge struct {
	A      string `json:"player1" bson:"player1"`
	B      string `json:"player2" bson:"player2"`
	Weight int    `json:"weight" bson:"weight"`
}

// ByMatchesDesc orders nodes by match count descending, then name ascending.
// It is a comparison function for slices.SortFunc.
func ByMatchesDesc(x, y Node) int {
	if x.Matches != y.Matches {
		if x.Matches > y.Matches {
			return -1
		}
		return 1
	}
	return strings.Compare(x.Name, y.Name)
}

// ByWeightDesc orders edges by weight descending, then canonical pair order.
func ByWeightDesc(x, y Edge) int {
	if x.Weight != y.Weight {
		if x.Weight > y.Weight {
			return -1
		}
		return 1
	}
	return byPair(x, y)
}

func byPair(x, y Edge) int {
	if c := strings.Compare(x.A, y.A); c != 0 {
		return c
	}
	return strings.Compare(x.B, y.B)
}
