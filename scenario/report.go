package scenario

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/strategicsim/triad/game"
)

// PayoffTables renders one table per third-player strategy: rows are
// player 1's strategies, columns player 2's, cells the payoff triple.
func (sc *Scenario) PayoffTables() string {
	shape := sc.Spec.Shape()
	players := sc.Spec.Players

	var sb strings.Builder
	for s3 := 0; s3 < shape[2]; s3++ {
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 80))
		fmt.Fprintf(&sb, "%s: %s\n", players[2].Name, players[2].Strategies[s3])
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 80))
		fmt.Fprintf(&sb, "%-18s", players[0].Name+" \\ "+players[1].Name)
		for s2 := 0; s2 < shape[1]; s2++ {
			fmt.Fprintf(&sb, "%-22s", players[1].Strategies[s2])
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("-", 80))
		for s1 := 0; s1 < shape[0]; s1++ {
			fmt.Fprintf(&sb, "%-18s", players[0].Strategies[s1])
			for s2 := 0; s2 < shape[1]; s2++ {
				fmt.Fprintf(&sb, "(%6.2f,%6.2f,%6.2f) ",
					sc.Tensors[0].Cell(s1, s2, s3),
					sc.Tensors[1].Cell(s1, s2, s3),
					sc.Tensors[2].Cell(s1, s2, s3))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// EquilibriaReport lists equilibria with labeled strategies and each
// player's payoff at the profile.
func (sc *Scenario) EquilibriaReport(equilibria []game.Profile) string {
	var sb strings.Builder
	if len(equilibria) == 0 {
		sb.WriteString("No pure strategy Nash equilibria found.\n")
		sb.WriteString("The game may only have mixed strategy equilibria.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Found %d pure strategy Nash equilibri%s:\n\n",
		len(equilibria), lo.Ternary(len(equilibria) == 1, "um", "a"))
	for n, eq := range equilibria {
		fmt.Fprintf(&sb, "Equilibrium %d: %v\n", n+1, eq)
		for i, p := range sc.Spec.Players {
			fmt.Fprintf(&sb, "  %-14s %-28s payoff %6.2f\n",
				p.Name, p.Strategies[eq[i]]+fmt.Sprintf(" (strategy %d)", eq[i]),
				sc.Tensors[i].Cell(eq[0], eq[1], eq[2]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// BestResponseReport shows, per player, the best responses against
// every combination of the other two players' strategies.
func (sc *Scenario) BestResponseReport(g *game.Game) (string, error) {
	shape := sc.Spec.Shape()
	players := sc.Spec.Players

	var sb strings.Builder
	for player := 0; player < game.NumPlayers; player++ {
		oi, oj := otherPlayers(player)
		fmt.Fprintf(&sb, "%s best responses:\n", players[player].Name)
		for si := 0; si < shape[oi]; si++ {
			for sj := 0; sj < shape[oj]; sj++ {
				br, err := g.BestResponses(player, [2]int{si, sj})
				if err != nil {
					return "", err
				}
				labels := lo.Map(br, func(k int, _ int) string {
					return players[player].Strategies[k]
				})
				fmt.Fprintf(&sb, "  vs %s=%s, %s=%s: %s\n",
					players[oi].Name, players[oi].Strategies[si],
					players[oj].Name, players[oj].Strategies[sj],
					strings.Join(labels, ", "))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// otherPlayers returns the indices of the two players other than
// player, in ascending order.
func otherPlayers(player int) (int, int) {
	switch player {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}
