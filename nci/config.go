package nci

import (
	"log"
	"os"
	"time"
)

// Option configures an SM constructed by New, following the functional-
// options idiom used throughout this codebase's constructors.
type Option func(*smConfig)

type smConfig struct {
	link          Link
	timeout       time.Duration
	protocolOrder []RFProtocol
	logger        *log.Logger
}

func defaultConfig() smConfig {
	return smConfig{
		timeout:       500 * time.Millisecond,
		protocolOrder: []RFProtocol{RFProtocolT2T, RFProtocolISODEP},
		logger:        log.New(os.Stderr, "", log.LstdFlags),
	}
}

// WithLink supplies the downward Link commands are sent over. Required
// for SendCommand/SwitchTo to do anything; an engine with no Link still
// runs its full notification-driven state machine through Deliver.
func WithLink(link Link) Option {
	return func(c *smConfig) { c.link = link }
}

// WithTimeout overrides the default command/response correlation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *smConfig) { c.timeout = d }
}

// WithProtocolOrder overrides W4_HOST_SELECT's protocol preference order,
// used to break ties among multiple concurrently discovered, equally
// supported targets. The default is {T2T, ISO_DEP}; only pass a different
// order for a deliberate site-specific policy.
func WithProtocolOrder(order []RFProtocol) Option {
	return func(c *smConfig) { c.protocolOrder = append([]RFProtocol(nil), order...) }
}

// WithLogger overrides the destination for absorbed-error and stall logs.
// The default logs to stderr with standard flags.
func WithLogger(l *log.Logger) Option {
	return func(c *smConfig) { c.logger = l }
}
