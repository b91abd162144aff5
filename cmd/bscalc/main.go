// bscalc 命令行 Black-Scholes 计算器：输出期权价格、希腊字母与到期损益表
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "bscalc:", err)
		os.Exit(1)
	}
}

type options struct {
	params  domain.OptionParameters
	typ     string
	payoff  bool
	points  int
	percent bool
}

func parseFlags(args []string) (*options, error) {
	fs := pflag.NewFlagSet("bscalc", pflag.ContinueOnError)
	o := &options{}
	fs.Float64Var(&o.params.Spot, "spot", 0, "underlying spot price S")
	fs.Float64Var(&o.params.Strike, "strike", 0, "strike price K (defaults to spot)")
	fs.Float64Var(&o.params.Maturity, "maturity", 0.25, "time to maturity in years")
	fs.Float64Var(&o.params.Rate, "rate", 0.02, "risk-free rate")
	fs.Float64Var(&o.params.Volatility, "vol", 0.30, "annualised volatility")
	fs.StringVarP(&o.typ, "type", "t", "call", "option type: call or put")
	fs.BoolVar(&o.payoff, "payoff", false, "print the payoff table at expiry")
	fs.IntVar(&o.points, "points", 11, "number of payoff table rows")
	fs.BoolVar(&o.percent, "percent", false, "rate and vol are given in percent (5 means 0.05)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	t, err := domain.ParseOptionType(o.typ)
	if err != nil {
		return nil, err
	}
	o.params.Type = t
	if o.params.Strike == 0 {
		o.params.Strike = o.params.Spot
	}
	if o.percent {
		o.params.Rate /= 100
		o.params.Volatility /= 100
	}
	return o, nil
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	v, err := domain.NewEngine().Evaluate(o.params)
	if err != nil {
		return err
	}

	p := o.params
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tS=%s K=%s T=%s r=%s σ=%s\n", p.Type,
		fixed(p.Spot, 2), fixed(p.Strike, 2), fixed(p.Maturity, 4), fixed(p.Rate, 4), fixed(p.Volatility, 4))
	fmt.Fprintf(w, "Price\t%s\n", fixed(v.Price, 2))
	fmt.Fprintf(w, "Delta\t%s\n", fixed(v.Greeks.Delta, 5))
	fmt.Fprintf(w, "Gamma\t%s\n", fixed(v.Greeks.Gamma, 5))
	fmt.Fprintf(w, "Theta\t%s\t(per day)\n", fixed(v.Greeks.Theta, 5))
	fmt.Fprintf(w, "Vega\t%s\t(per 1%% vol)\n", fixed(v.Greeks.Vega, 5))
	fmt.Fprintf(w, "Rho\t%s\t(per 1%% rate)\n", fixed(v.Greeks.Rho, 5))
	if err := w.Flush(); err != nil {
		return err
	}

	if !o.payoff {
		return nil
	}
	curve, err := domain.GeneratePayoffCurve(domain.PayoffSpec{
		Type:   p.Type,
		Strike: p.Strike,
		Anchor: p.Spot,
		Count:  o.points,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Price at expiry\tPayoff\t")
	for _, pt := range curve.Points {
		fmt.Fprintf(w, "%s\t%s\t\n", fixed(pt.StockPrice, 2), fixed(pt.Payoff, 2))
	}
	return w.Flush()
}

func fixed(x float64, places int32) string {
	return decimal.NewFromFloat(x).StringFixed(places)
}
