// Command tabulate is a small demonstration harness over the tabulation
// core: it loads one of a handful of embedded scenario fixtures, runs the
// named method, and prints the round-by-round audit trail as plain text.
// It is not a report renderer or a ballot-file parser; it exists to give the library something runnable.
package main

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/scenario"
)

//go:embed scenarios/*.json
var scenarioFS embed.FS

type listCmd struct{}

func (c *listCmd) Run() error {
	entries, err := scenarioFS.ReadDir("scenarios")
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Println(strings.TrimSuffix(e.Name(), ".json"))
	}
	return nil
}

type runCmd struct {
	Scenario string `arg:"" help:"Embedded scenario name (see 'tabulate list')."`
}

func (c *runCmd) Run() error {
	raw, err := scenarioFS.ReadFile("scenarios/" + c.Scenario + ".json")
	if err != nil {
		return fmt.Errorf("unknown scenario %q (try 'tabulate list')", c.Scenario)
	}
	s, err := scenario.Parse(raw)
	if err != nil {
		return err
	}
	result, err := s.Run()
	if err != nil {
		return err
	}
	printResult(s, result)
	return nil
}

var cli struct {
	List listCmd `cmd:"" help:"List embedded scenarios."`
	Run  runCmd  `cmd:"" help:"Run an embedded scenario and print its round-by-round record."`
}

func main() {
	ctx := kong.Parse(&cli, kong.Name("tabulate"), kong.Description("Preferential-voting tabulation demo harness."))
	ctx.FatalIfErrorf(ctx.Run())
}

func printResult(s *scenario.Scenario, result *report.Result) {
	names := s.Candidates
	for _, round := range result.Rounds {
		fmt.Printf("Round %d: %s\n", round.Index, actionLabel(names, round.Action))
		if round.Count != nil {
			candidates := make([]int, 0, len(round.Count))
			for c := range round.Count {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				fmt.Printf("  %-16s %s\n", names[c], round.Count[c].String())
			}
		}
		if round.HasThresh {
			fmt.Printf("  threshold: %s\n", round.Threshold.String())
		}
		for _, n := range round.Narrative {
			fmt.Printf("  - %s\n", n)
		}
	}
	fmt.Println("Winners:")
	for _, w := range result.Winners {
		fmt.Printf("  %s\n", names[w])
	}
}

func actionLabel(names []string, a report.Action) string {
	switch a.Kind {
	case report.First:
		return "first count"
	case report.Surplus:
		return fmt.Sprintf("surplus transfer (%s)", names[a.Transferor])
	case report.Eliminate:
		return fmt.Sprintf("eliminate (%s)", joinNames(names, a.Losers))
	case report.Restart:
		return "restart after exclusion"
	default:
		return "round"
	}
}

func joinNames(names []string, idx []int) string {
	out := make([]string, len(idx))
	for i, c := range idx {
		out[i] = names[c]
	}
	return strings.Join(out, ", ")
}
