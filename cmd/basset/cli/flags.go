package cli

import (
	"strconv"

	"github.com/spf13/pflag"
)

// toggleValue is a boolean flag value that lets a flag pair write one
// destination. pflag invokes Set in command-line order, so the last of
// --verbose / --no-verbose wins without any position tracking.
type toggleValue struct {
	target *bool
	seen   *bool
	value  bool // what a bare occurrence of this flag sets target to
}

func newToggle(target, seen *bool, value bool) *toggleValue {
	return &toggleValue{target: target, seen: seen, value: value}
}

func (v *toggleValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if b {
		*v.target = v.value
	} else {
		*v.target = !v.value
	}
	*v.seen = true
	return nil
}

func (v *toggleValue) Type() string {
	return "bool"
}

func (v *toggleValue) String() string {
	return strconv.FormatBool(*v.target == v.value)
}

// Compile-time interface check
var _ pflag.Value = (*toggleValue)(nil)
