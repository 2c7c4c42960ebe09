package scenario

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/strategicsim/triad/game"
	"github.com/strategicsim/triad/tensor"
)

const testSpecYAML = `
name: test-scenario
players:
  - name: Alpha
    strategies: [hold, push]
    model:
      type: staged-bank
      builders:
        - {event: A, weight: 100}
      gates:
        - {event: G, multiplier: 0.4}
  - name: Beta
    strategies: [hold, push]
    model:
      type: survival
      base: 50
      cap: 100
      survival-event: S
      bonuses:
        - {event: B, weight: 20}
      fallback: {event: F, weight: 20}
  - name: Gamma
    strategies: [hold, push]
    model:
      type: bank-blend
      banks:
        - weight: 1.0
          scale: 100
          goals:
            - {event: X, weight: 0.6}
            - {event: Y, weight: 0.4}
`

func testSpec(t *testing.T) *Spec {
	t.Helper()
	spec, err := ParseSpec([]byte(testSpecYAML))
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func TestParseSpec(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)
	is.Equal(spec.Name, "test-scenario")
	is.Equal(len(spec.Players), 3)
	is.Equal(spec.Shape(), tensor.Shape{2, 2, 2})
	is.Equal(spec.Players[0].EventNames(), []string{"A", "G"})
	is.Equal(spec.Players[1].EventNames(), []string{"S", "B", "F"})
	is.Equal(spec.Players[2].EventNames(), []string{"X", "Y"})
}

func TestParseSpecRejectsBadInput(t *testing.T) {
	for _, tc := range []struct {
		name string
		edit func(s *Spec)
	}{
		{"two players", func(s *Spec) { s.Players = s.Players[:2] }},
		{"no strategies", func(s *Spec) { s.Players[0].Strategies = nil }},
		{"unknown model", func(s *Spec) { s.Players[0].Model.Type = "mystery" }},
		{"no events", func(s *Spec) {
			s.Players[0].Model.Builders = nil
			s.Players[0].Model.Gates = nil
		}},
		{"duplicate event", func(s *Spec) {
			s.Players[0].Model.Gates[0].Event = "A"
		}},
		{"unnamed event", func(s *Spec) {
			s.Players[0].Model.Builders[0].Event = ""
		}},
		{"survival without fallback", func(s *Spec) {
			s.Players[1].Model.Fallback = nil
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			spec := testSpec(t)
			tc.edit(spec)
			is.True(spec.validate() != nil)
		})
	}
}

func TestHeader(t *testing.T) {
	is := is.New(t)
	is.Equal(Header(testSpec(t)), []string{
		"p1", "p2", "p3",
		"p1_A", "p1_G",
		"p2_S", "p2_B", "p2_F",
		"p3_X", "p3_Y",
	})
}

func TestSampleCSVRoundTrip(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)

	var buf bytes.Buffer
	is.NoErr(WriteSampleCSV(&buf, spec))

	rows, err := ReadCSV(&buf, spec)
	is.NoErr(err)
	is.Equal(len(rows), 8)
	is.Equal(rows[0].Profile, game.Profile{0, 0, 0})
	is.Equal(rows[7].Profile, game.Profile{1, 1, 1})
	is.Equal(rows[3].Probs[1]["S"], 0.5)

	tensors, err := BuildTensors(spec, rows)
	is.NoErr(err)
	// With every probability at 0.5:
	// staged: 100*0.5 through gate factor 0.5+0.5*0.4
	// survival: 0.5*(50+10) + 0.5*(20*0.5)
	// blend: 100*(0.6+0.4)*0.5
	for s1 := 0; s1 < 2; s1++ {
		for s2 := 0; s2 < 2; s2++ {
			for s3 := 0; s3 < 2; s3++ {
				is.True(near(tensors[0].Cell(s1, s2, s3), 35.0))
				is.True(near(tensors[1].Cell(s1, s2, s3), 35.0))
				is.True(near(tensors[2].Cell(s1, s2, s3), 50.0))
			}
		}
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestReadCSVErrors(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)

	_, err := ReadCSV(strings.NewReader("p1,p2,p3\n"), spec)
	is.True(err != nil) // missing probability columns

	header := strings.Join(Header(spec), ",")
	_, err = ReadCSV(strings.NewReader(header+"\n5,0,0,.5,.5,.5,.5,.5,.5,.5\n"), spec)
	is.True(err != nil) // index out of range

	_, err = ReadCSV(strings.NewReader(header+"\n0,0,0,.5,oops,.5,.5,.5,.5,.5\n"), spec)
	is.True(err != nil) // unparseable probability
}

func TestBuildTensorsProfileCoverage(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)

	var buf bytes.Buffer
	is.NoErr(WriteSampleCSV(&buf, spec))
	rows, err := ReadCSV(&buf, spec)
	is.NoErr(err)

	_, err = BuildTensors(spec, rows[:7])
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "no row for profile"))

	dup := append(rows[:7:7], rows[6])
	_, err = BuildTensors(spec, dup)
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "duplicate row"))
}

// biasedCSV builds rows where each player's event probabilities are high
// only when that player picks strategy 1, making (1, 1, 1) the unique
// dominant-strategy equilibrium.
func biasedCSV(t *testing.T, spec *Spec) string {
	t.Helper()
	pick := func(s int) string {
		if s == 1 {
			return "0.9"
		}
		return "0.2"
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(Header(spec), ",") + "\n")
	for s1 := 0; s1 < 2; s1++ {
		for s2 := 0; s2 < 2; s2++ {
			for s3 := 0; s3 < 2; s3++ {
				fields := []string{
					strconv.Itoa(s1), strconv.Itoa(s2), strconv.Itoa(s3),
					pick(s1), "1.0", // p1: builder tracks own strategy, gate always holds
					pick(s2), "0.5", "0.5", // p2: survival tracks own strategy
					pick(s3), pick(s3), // p3: both goals track own strategy
				}
				sb.WriteString(strings.Join(fields, ",") + "\n")
			}
		}
	}
	return sb.String()
}

func TestScenarioGameIntegration(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)

	rows, err := ReadCSV(strings.NewReader(biasedCSV(t, spec)), spec)
	is.NoErr(err)
	sc, err := New(spec, rows)
	is.NoErr(err)

	g, err := sc.Game()
	is.NoErr(err)
	eqs := g.PureNashEquilibria()
	is.Equal(eqs, []game.Profile{{1, 1, 1}})

	model, err := sc.ModelFor(0, game.Profile{1, 0, 0})
	is.NoErr(err)
	is.True(near(model.ExpectedValue(), 90.0)) // 100*0.9, gate always holds

	_, err = sc.ModelFor(3, game.Profile{0, 0, 0})
	is.True(err != nil)
	_, err = sc.ModelFor(0, game.Profile{5, 5, 5})
	is.True(err != nil)
}

func TestMinMax(t *testing.T) {
	is := is.New(t)
	tt, err := tensor.New(tensor.Shape{1, 2, 2}, []float64{10, 20, 30, 40})
	is.NoErr(err)

	scaled, err := MinMax(tt, 0, 1)
	is.NoErr(err)
	is.Equal(scaled.Values(), []float64{0, 1.0 / 3.0, 2.0 / 3.0, 1})
	// original untouched
	is.Equal(tt.Cell(0, 0, 0), 10.0)

	flat, err := tensor.New(tensor.Shape{1, 1, 2}, []float64{7, 7})
	is.NoErr(err)
	scaled, err = MinMax(flat, 2, 5)
	is.NoErr(err)
	is.Equal(scaled.Values(), []float64{2, 2})

	_, err = MinMax(tt, 5, 5)
	is.True(err != nil)
}

func TestRescale(t *testing.T) {
	is := is.New(t)
	tt, err := tensor.New(tensor.Shape{1, 1, 2}, []float64{50, 100})
	is.NoErr(err)

	scaled, err := Rescale(tt, 10)
	is.NoErr(err)
	is.Equal(scaled.Values(), []float64{5, 10})

	_, err = Rescale(tt, 0)
	is.True(err != nil)
}

func TestNormalizedCopyPreservesEquilibria(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)
	rows, err := ReadCSV(strings.NewReader(biasedCSV(t, spec)), spec)
	is.NoErr(err)
	sc, err := New(spec, rows)
	is.NoErr(err)

	norm, err := sc.NormalizedCopy(10)
	is.NoErr(err)
	g, err := norm.Game()
	is.NoErr(err)
	is.Equal(g.PureNashEquilibria(), []game.Profile{{1, 1, 1}})
}

func TestReports(t *testing.T) {
	is := is.New(t)
	spec := testSpec(t)
	rows, err := ReadCSV(strings.NewReader(biasedCSV(t, spec)), spec)
	is.NoErr(err)
	sc, err := New(spec, rows)
	is.NoErr(err)

	tables := sc.PayoffTables()
	is.True(strings.Contains(tables, "Gamma: hold"))
	is.True(strings.Contains(tables, "Gamma: push"))
	is.True(strings.Contains(tables, "Alpha \\ Beta"))

	g, err := sc.Game()
	is.NoErr(err)
	report := sc.EquilibriaReport(g.PureNashEquilibria())
	is.True(strings.Contains(report, "Found 1 pure strategy Nash equilibrium"))
	is.True(strings.Contains(report, "push"))

	empty := sc.EquilibriaReport(nil)
	is.True(strings.Contains(empty, "No pure strategy Nash equilibria found."))

	br, err := sc.BestResponseReport(g)
	is.NoErr(err)
	is.True(strings.Contains(br, "Alpha best responses:"))
	is.True(strings.Contains(br, "vs Beta=hold, Gamma=hold: push"))
}
