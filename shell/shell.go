// Package shell implements the interactive analysis loop: loading
// scenarios, solving for equilibria, and running Monte Carlo checks.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/strategicsim/triad/config"
	"github.com/strategicsim/triad/game"
	"github.com/strategicsim/triad/montecarlo"
	"github.com/strategicsim/triad/scenario"
)

type ShellController struct {
	l   *readline.Instance
	cfg *config.Config

	curSpec     *scenario.Spec
	curScenario *scenario.Scenario
	curGame     *game.Game
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mtriad>\033[0m ",
		HistoryFile:     cfg.GetString("history-file"),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	return &ShellController{l: l, cfg: cfg}
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	showMessage("Error: "+err.Error(), sc.l.Stderr())
}

func (sc *ShellController) threads() int {
	t := sc.cfg.GetInt("threads")
	if t <= 0 {
		t = runtime.NumCPU()
	}
	return t
}

func (sc *ShellController) loadSpec(path string) error {
	spec, err := scenario.LoadSpec(path)
	if err != nil {
		return err
	}
	sc.curSpec = spec
	sc.curScenario = nil
	sc.curGame = nil
	sc.showMessage(fmt.Sprintf("Loaded scenario %q, strategy space %v",
		spec.Name, spec.Shape()))
	return nil
}

func (sc *ShellController) loadCSV(path string) error {
	if sc.curSpec == nil {
		return errors.New("load a scenario first with the `scenario` command")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := scenario.ReadCSV(f, sc.curSpec)
	if err != nil {
		return err
	}
	scen, err := scenario.New(sc.curSpec, rows)
	if err != nil {
		return err
	}
	g, err := scen.Game()
	if err != nil {
		return err
	}
	g.SetThreads(sc.threads())
	sc.curScenario = scen
	sc.curGame = g
	sc.showMessage(fmt.Sprintf("Loaded %d profiles; payoff tensors ready.", len(rows)))
	return nil
}

func (sc *ShellController) writeSample(path string) error {
	if sc.curSpec == nil {
		return errors.New("load a scenario first with the `scenario` command")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := scenario.WriteSampleCSV(f, sc.curSpec); err != nil {
		return err
	}
	sc.showMessage("Wrote sample csv to " + path)
	return nil
}

func (sc *ShellController) requireGame() error {
	if sc.curGame == nil {
		return errors.New("no game loaded; use `scenario` and `load` first")
	}
	return nil
}

func (sc *ShellController) solve(parallel bool) error {
	if err := sc.requireGame(); err != nil {
		return err
	}
	var equilibria []game.Profile
	var err error
	if parallel {
		equilibria, err = sc.curGame.ParallelPureNashEquilibria(context.Background())
		if err != nil {
			return err
		}
	} else {
		equilibria = sc.curGame.PureNashEquilibria()
	}
	sc.showMessage(sc.curScenario.EquilibriaReport(equilibria))
	report, err := sc.curScenario.BestResponseReport(sc.curGame)
	if err != nil {
		return err
	}
	sc.showMessage(report)
	return nil
}

func parseProfile(fields []string) (game.Profile, error) {
	var p game.Profile
	if len(fields) != game.NumPlayers {
		return p, fmt.Errorf("expected %d strategy indices", game.NumPlayers)
	}
	for i, f := range fields {
		s, err := strconv.Atoi(f)
		if err != nil {
			return p, fmt.Errorf("bad strategy index %q", f)
		}
		p[i] = s
	}
	return p, nil
}

func (sc *ShellController) payoffs(fields []string) error {
	if err := sc.requireGame(); err != nil {
		return err
	}
	p, err := parseProfile(fields)
	if err != nil {
		return err
	}
	for player, ps := range sc.curSpec.Players {
		v, err := sc.curGame.Payoff(player, p)
		if err != nil {
			return err
		}
		sc.showMessage(fmt.Sprintf("%-14s %8.2f", ps.Name, v))
	}
	return nil
}

func (sc *ShellController) bestResponses(fields []string) error {
	if err := sc.requireGame(); err != nil {
		return err
	}
	if len(fields) != 3 {
		return errors.New("usage: best <player 0-2> <other strategy> <other strategy>")
	}
	player, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("bad player index %q", fields[0])
	}
	var others [2]int
	for i, f := range fields[1:] {
		others[i], err = strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("bad strategy index %q", f)
		}
	}
	br, err := sc.curGame.BestResponses(player, others)
	if err != nil {
		return err
	}
	labels := make([]string, len(br))
	for i, k := range br {
		labels[i] = fmt.Sprintf("%d (%s)", k, sc.curSpec.Players[player].Strategies[k])
	}
	sc.showMessage("Best responses: " + strings.Join(labels, ", "))
	return nil
}

func (sc *ShellController) monteCarlo(fields []string) error {
	if err := sc.requireGame(); err != nil {
		return err
	}
	if len(fields) < 4 {
		return errors.New("usage: mc <player 0-2> <s1> <s2> <s3> [iterations] [seed]")
	}
	player, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("bad player index %q", fields[0])
	}
	p, err := parseProfile(fields[1:4])
	if err != nil {
		return err
	}
	iters := sc.cfg.GetInt("mc-iterations")
	seed := sc.cfg.GetUint64("mc-seed")
	if len(fields) > 4 {
		if iters, err = strconv.Atoi(fields[4]); err != nil {
			return fmt.Errorf("bad iteration count %q", fields[4])
		}
	}
	if len(fields) > 5 {
		if seed, err = strconv.ParseUint(fields[5], 10, 64); err != nil {
			return fmt.Errorf("bad seed %q", fields[5])
		}
	}

	model, err := sc.curScenario.ModelFor(player, p)
	if err != nil {
		return err
	}
	est := montecarlo.New()
	est.SetThreads(sc.threads())
	est.SetRecordDraws(true)
	check, err := est.CrossCheck(context.Background(), model, iters, seed,
		sc.cfg.GetFloat64("mc-tolerance"))
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(check)
	if err != nil {
		return err
	}
	sc.showMessage(string(out))
	hist, err := montecarlo.HistogramString(check.Draws, 15)
	if err != nil {
		return err
	}
	sc.showMessage(hist)
	if !check.Agrees {
		sc.showMessage("WARNING: estimate disagrees with the analytic expectation")
	}
	return nil
}

func (sc *ShellController) normalize(fields []string) error {
	if err := sc.requireGame(); err != nil {
		return err
	}
	scale := 10.0
	if len(fields) > 0 {
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("bad scale %q", fields[0])
		}
		scale = v
	}
	scen, err := sc.curScenario.NormalizedCopy(scale)
	if err != nil {
		return err
	}
	g, err := scen.Game()
	if err != nil {
		return err
	}
	g.SetThreads(sc.threads())
	sc.curScenario = scen
	sc.curGame = g
	sc.showMessage(fmt.Sprintf("Payoffs rescaled to 0-%.0f", scale))
	return nil
}

func (sc *ShellController) set(fields []string) error {
	if len(fields) != 2 {
		return errors.New("usage: set <key> <value>")
	}
	sc.cfg.Set(fields[0], fields[1])
	sc.showMessage(fmt.Sprintf("%s = %s", fields[0], fields[1]))
	return nil
}

func (sc *ShellController) settings() {
	out, err := yaml.Marshal(sc.cfg.AllSettings())
	if err != nil {
		sc.showError(err)
		return
	}
	sc.showMessage(string(out))
}

// Loop reads and executes commands until exit or EOF.
func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	if path := sc.cfg.GetString("scenario"); path != "" {
		if err := sc.loadSpec(path); err != nil {
			sc.showError(err)
		}
	}
	if path := sc.cfg.GetString("csv"); path != "" {
		if err := sc.loadCSV(path); err != nil {
			sc.showError(err)
		}
	}

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "exit", "bye", "quit":
			log.Info().Msg("leaving shell")
			return
		case "help":
			usage(sc.l.Stderr())
		case "scenario":
			if len(args) != 1 {
				sc.showError(errors.New("usage: scenario <path/to/spec.yaml>"))
				continue
			}
			if err := sc.loadSpec(args[0]); err != nil {
				sc.showError(err)
			}
		case "load":
			if len(args) != 1 {
				sc.showError(errors.New("usage: load <path/to/probabilities.csv>"))
				continue
			}
			if err := sc.loadCSV(args[0]); err != nil {
				sc.showError(err)
			}
		case "sample":
			if len(args) != 1 {
				sc.showError(errors.New("usage: sample <path/to/output.csv>"))
				continue
			}
			if err := sc.writeSample(args[0]); err != nil {
				sc.showError(err)
			}
		case "show":
			if err := sc.requireGame(); err != nil {
				sc.showError(err)
				continue
			}
			sc.showMessage(sc.curScenario.PayoffTables())
		case "solve":
			parallel := len(args) > 0 && args[0] == "parallel"
			if err := sc.solve(parallel); err != nil {
				sc.showError(err)
			}
		case "payoff":
			if err := sc.payoffs(args); err != nil {
				sc.showError(err)
			}
		case "best":
			if err := sc.bestResponses(args); err != nil {
				sc.showError(err)
			}
		case "mc":
			if err := sc.monteCarlo(args); err != nil {
				sc.showError(err)
			}
		case "normalize":
			if err := sc.normalize(args); err != nil {
				sc.showError(err)
			}
		case "set":
			if err := sc.set(args); err != nil {
				sc.showError(err)
			}
		case "settings":
			sc.settings()
		default:
			log.Debug().Str("command", cmd).Msg("unrecognized command")
			sc.showError(fmt.Errorf("command %q not recognized; try `help`", cmd))
		}
	}
}
