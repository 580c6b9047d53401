package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type Settings struct {
	Name string
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold consecutive failures open the breaker. Zero means 5.
	FailureThreshold uint32
	OnStateChange    func(name, from, to string)
}

// CircuitBreaker guards calls to an external dependency such as the event broker.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	st := gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
	if settings.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			settings.OnStateChange(name, from.String(), to.String())
		}
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(st)}
}

func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State is "closed", "half-open" or "open".
func (c *CircuitBreaker) State() string {
	return c.cb.State().String()
}

// IsOpen reports whether err was returned without calling fn.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
