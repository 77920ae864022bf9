package contract

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Checks collects admission failures so a bad config reports every field at
// once. The result is a single InvalidArgument.
type Checks struct {
	result *multierror.Error
}

// Require records msg unless cond holds.
func (c *Checks) Require(cond bool, msg string) {
	if !cond {
		c.result = multierror.Append(c.result, errors.New(msg))
	}
}

// Bps records a basis point field above 100%.
func (c *Checks) Bps(bps uint32, field string) {
	c.Require(bps <= BpsDenominator, field+" above 10000 bps")
}

// Positive records a non-positive amount.
func (c *Checks) Positive(amount int64, field string) {
	c.Require(amount > 0, field+" must be positive")
}

// Address records an unusable principal.
func (c *Checks) Address(a interface{ IsValid() bool }, field string) {
	c.Require(a.IsValid(), "invalid "+field)
}

// Err is nil when every check passed.
func (c *Checks) Err() error {
	if c.result == nil {
		return nil
	}
	c.result.ErrorFormat = func(es []error) string {
		msgs := make([]string, len(es))
		for i, e := range es {
			msgs[i] = e.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return Invalid(c.result.Error())
}
