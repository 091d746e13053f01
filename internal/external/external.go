// Package external provides implementations of the aggregator's
// rest-day-source and report-sink collaborators: no-op ones used when no
// remote integration is configured, and HTTPSink as a transport seam. Transport, authentication, and retry for a
// real integration live outside this module.
package external

import (
	"context"
	"fmt"
	"time"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

// NoRestDays is a RestDaySource that never flags any date as a rest day.
type NoRestDays struct{}

// RestDays always returns an empty set with no error.
func (NoRestDays) RestDays(context.Context, int, time.Month) (map[string]bool, error) {
	return nil, nil
}

// DiscardSink is a ReportSink that accepts and drops every report,
// useful for `--send` runs with no integration configured.
type DiscardSink struct{}

// Send always succeeds without transmitting anything.
func (DiscardSink) Send(context.Context, any) error {
	return nil
}

// HTTPSink hands a serialized report to a caller-supplied Post function.
// It is the seam a concrete integration (a team dashboard, a timesheet
// service) plugs into; the core only depends on the ReportSink
// interface.
type HTTPSink struct {
	Post func(ctx context.Context, body []byte) error
}

// Send passes report, which must already be serialized as []byte, to
// Post; it does no marshaling itself. A missing Post, a report of any
// other type, or a Post failure is reported as RemoteUnavailable.
func (s HTTPSink) Send(ctx context.Context, report any) error {
	if s.Post == nil {
		return fmt.Errorf("%w: no transport configured", kerrors.ErrRemoteUnavailable)
	}
	body, ok := report.([]byte)
	if !ok {
		return fmt.Errorf("%w: report must be pre-serialized", kerrors.ErrRemoteUnavailable)
	}
	if err := s.Post(ctx, body); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrRemoteUnavailable, err)
	}
	return nil
}
