package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

func TestRun_Dashboard(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--spot", "150", "--strike", "150"}, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CALL", "9.32", "0.54313", "0.01763"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_PercentAndPayoff(t *testing.T) {
	var out bytes.Buffer
	args := []string{"--spot=100", "--type=put", "--rate=5", "--vol=20", "--maturity=1", "--percent", "--payoff", "--points=3"}
	if err := run(args, &out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "5.57") {
		t.Errorf("put price missing:\n%s", s)
	}
	if !strings.Contains(s, "Price at expiry") || !strings.Contains(s, "20.00") || !strings.Contains(s, "120.00") {
		t.Errorf("payoff table missing:\n%s", s)
	}
	for _, price := range []string{"80.00", "100.00", "120.00"} {
		if !strings.Contains(s, price) {
			t.Errorf("price at expiry %s missing:\n%s", price, s)
		}
	}
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"--spot", "42"})
	if err != nil {
		t.Fatal(err)
	}
	if o.params.Strike != 42 || o.params.Type != domain.OptionTypeCall || o.params.Volatility != 0.30 {
		t.Errorf("defaults = %+v", o.params)
	}
	if _, err := parseFlags([]string{"--type", "straddle"}); err == nil {
		t.Errorf("invalid type accepted")
	}
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--spot", "100", "--vol", "0"}, &out); err == nil {
		t.Errorf("zero volatility should fail")
	}
	if err := run([]string{"--spot", "-1"}, &out); err == nil {
		t.Errorf("negative spot should fail")
	}
}
