package auth

import (
	"fmt"
	"time"
)

// IsWithinThresholdPeriod reports whether t is after now minus the
// duration expression, e.g. "24h" for the login attempt cool down.
func IsWithinThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	threshold, err := time.ParseDuration(thresholdExpr)
	if err != nil {
		return false, fmt.Errorf("invalid threshold expression %q: %w", thresholdExpr, err)
	}
	return t.After(time.Now().Add(-threshold)), nil
}

// IsOutsideThresholdPeriod is the complement of IsWithinThresholdPeriod.
func IsOutsideThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	within, err := IsWithinThresholdPeriod(t, thresholdExpr)
	if err != nil {
		return false, err
	}
	return !within, nil
}
