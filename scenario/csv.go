package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/strategicsim/triad/game"
	"github.com/strategicsim/triad/tensor"
)

// Row is one strategy profile's event probabilities, per player.
type Row struct {
	Profile game.Profile
	Probs   [game.NumPlayers]map[string]float64
}

// columnName is the CSV header for a player's event probability.
func columnName(player int, event string) string {
	return fmt.Sprintf("p%d_%s", player+1, event)
}

// Header returns the required CSV columns for a spec: the three
// strategy indices followed by each player's event probabilities in
// canonical event order. Extra columns in a file are ignored.
func Header(spec *Spec) []string {
	cols := []string{"p1", "p2", "p3"}
	for i, p := range spec.Players {
		cols = append(cols, lo.Map(p.EventNames(), func(event string, _ int) string {
			return columnName(i, event)
		})...)
	}
	return cols
}

// ReadCSV parses probability rows for the given spec. Validation is
// limited to what tensor population needs: parseable indices within the
// strategy space and a float per required column; probability ranges
// are enforced later by the model constructors.
func ReadCSV(r io.Reader, spec *Spec) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[h] = i
	}
	for _, required := range Header(spec) {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", required)
		}
	}

	shape := spec.Shape()
	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line++

		var row Row
		for i, col := range []string{"p1", "p2", "p3"} {
			s, err := strconv.Atoi(record[colIdx[col]])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s index: %w", line, col, err)
			}
			if s < 0 || s >= shape[i] {
				return nil, fmt.Errorf("line %d: %s=%d outside [0, %d)", line, col, s, shape[i])
			}
			row.Profile[i] = s
		}
		for i, p := range spec.Players {
			row.Probs[i] = map[string]float64{}
			for _, event := range p.EventNames() {
				raw := record[colIdx[columnName(i, event)]]
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad value %q for %s: %w",
						line, raw, columnName(i, event), err)
				}
				row.Probs[i][event] = v
			}
		}
		rows = append(rows, row)
	}
	log.Debug().Int("rows", len(rows)).Msg("read scenario csv")
	return rows, nil
}

// Shape derives the strategy space from the players' strategy lists.
func (s *Spec) Shape() tensor.Shape {
	var shape tensor.Shape
	for i, p := range s.Players {
		shape[i] = len(p.Strategies)
	}
	return shape
}

// BuildTensors evaluates every player's analytic model at every profile.
// Each of the n1*n2*n3 profiles must appear exactly once.
func BuildTensors(spec *Spec, rows []Row) ([game.NumPlayers]*tensor.Tensor, error) {
	var tensors [game.NumPlayers]*tensor.Tensor
	shape := spec.Shape()

	values := make([][]float64, game.NumPlayers)
	for i := range values {
		values[i] = make([]float64, shape.Size())
	}
	seen := make([]bool, shape.Size())

	for _, row := range rows {
		p := row.Profile
		idx := (p[0]*shape[1]+p[1])*shape[2] + p[2]
		if seen[idx] {
			return tensors, fmt.Errorf("duplicate row for profile %v", p)
		}
		seen[idx] = true
		for i, ps := range spec.Players {
			model, err := ps.BuildModel(row.Probs[i])
			if err != nil {
				return tensors, fmt.Errorf("profile %v: %w", p, err)
			}
			values[i][idx] = model.ExpectedValue()
		}
	}
	for idx, ok := range seen {
		if !ok {
			p := game.Profile{
				idx / (shape[1] * shape[2]),
				(idx / shape[2]) % shape[1],
				idx % shape[2],
			}
			return tensors, fmt.Errorf("no row for profile %v", p)
		}
	}

	for i := range tensors {
		t, err := tensor.New(shape, values[i])
		if err != nil {
			return tensors, err
		}
		tensors[i] = t
	}
	return tensors, nil
}

// WriteSampleCSV writes a template with every profile in lexicographic
// order and 0.5 for every probability, to be edited by hand.
func WriteSampleCSV(w io.Writer, spec *Spec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(spec)); err != nil {
		return err
	}
	shape := spec.Shape()
	nprobs := 0
	for _, p := range spec.Players {
		nprobs += len(p.EventNames())
	}
	for s1 := 0; s1 < shape[0]; s1++ {
		for s2 := 0; s2 < shape[1]; s2++ {
			for s3 := 0; s3 < shape[2]; s3++ {
				record := []string{
					strconv.Itoa(s1), strconv.Itoa(s2), strconv.Itoa(s3),
				}
				for i := 0; i < nprobs; i++ {
					record = append(record, "0.5")
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
