package scenario

import (
	"strings"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/errs"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tabulate/methods"
	"github.com/ballotcore/tabulator/tabulate/stv"
)

// cleanOptionsFor returns the ballot-cleaning pass appropriate to a method
// name: San Francisco RCV truncates at an overvote, Cambridge
// drops the overvoted position and continues, everything else leaves
// overvotes untouched for the tabulator: methods that follow a ballot's
// top continuing choice treat one as exhausting, Approval counts every
// candidate it names, and Bucklin splits the ballot's weight among them.
func cleanOptionsFor(method string) ballot.CleanOptions {
	opts := ballot.CleanOptions{RemoveEmpty: true, RemoveWithdrawn: true}
	switch method {
	case "sanfrancisco":
		opts.Overvote = ballot.OvervoteSanFrancisco
	case "cambridge":
		opts.Overvote = ballot.OvervoteCambridge
	}
	return opts
}

// Run builds the scenario's ballot collection, cleans it, and dispatches to
// the named tabulation method, returning its round-by-round result.
func (s *Scenario) Run() (*report.Result, error) {
	_, raw, err := s.Collection()
	if err != nil {
		return nil, err
	}
	clean, err := raw.Clean(cleanOptionsFor(strings.ToLower(s.Method)))
	if err != nil {
		return nil, err
	}

	p := s.Prec()
	resolver := s.Resolver()
	seats := s.SeatsOrDefault()

	switch strings.ToLower(s.Method) {
	case "approval":
		return methods.Approval(clean, p, seats, resolver), nil
	case "borda":
		return methods.Borda(clean, seats, p.Precision(), s.BordaCompletion.Or(false), resolver), nil
	case "sntv":
		return methods.SNTV(clean, p, seats, resolver), nil
	case "bucklin":
		return methods.Bucklin(clean, p, resolver), nil
	case "condorcet":
		return methods.Condorcet(clean, p, condorcetCompletion(s.Completion.Or("ssd")), resolver), nil

	case "irv":
		return stv.NewIRV(clean, p, resolver), nil
	case "coombs":
		return stv.NewCoombs(clean, p, resolver), nil
	case "sanfrancisco":
		return stv.NewSanFrancisco(clean, p, resolver), nil
	case "supplementalvote":
		return stv.NewSupplementalVote(clean, p, resolver), nil
	case "scottish":
		return stv.NewScottish(clean, p, seats, resolver), nil
	case "ftstv":
		return stv.NewFTSTV(clean, p, seats, resolver), nil
	case "gpca2000":
		return stv.NewGPCA2000(clean, p, seats, resolver), nil
	case "minneapolis":
		return stv.NewMinneapolis(clean, p, seats, s.StrictImpossibility.Or(true), resolver), nil
	case "cambridge":
		return stv.NewCambridge(clean, p, seats, resolver), nil
	case "random-transfer", "randomtransfer":
		return stv.NewRandomTransfer(clean, p, seats, resolver), nil
	case "ers97":
		return stv.NewERS97(clean, p, seats, resolver), nil
	case "nireland":
		return stv.NewNIreland(clean, p, seats, resolver), nil
	case "meek":
		return stv.NewMeek(clean, p, seats, resolver), nil
	case "warren":
		return stv.NewWarren(clean, p, seats, resolver), nil
	case "meeknz":
		return stv.NewMeekNZ(clean, p, seats, resolver), nil
	case "meekqx":
		return stv.NewMeekQX(clean, p, seats, resolver), nil
	case "qpq":
		return stv.NewQPQ(clean, p, seats, s.RestartAfterExclusion.Or(false), resolver), nil
	}

	return nil, errs.MessageErrorf(errs.ErrConfig, "scenario: unknown method %q", s.Method)
}

func condorcetCompletion(name string) methods.CompletionMethod {
	switch name {
	case "irv":
		return methods.IRVOnSmithSet
	case "borda":
		return methods.BordaOnSmithSet
	default:
		return methods.SchwartzSequentialDropping
	}
}
