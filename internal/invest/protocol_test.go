package invest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranovak/lendivest/internal/domain"
)

type investCall struct {
	loanID int64
	amount decimal.Decimal
}

type fakeInvestor struct {
	calls []investCall
	err   error
}

func (f *fakeInvestor) Invest(_ context.Context, loanID int64, amount decimal.Decimal) error {
	f.calls = append(f.calls, investCall{loanID: loanID, amount: amount})
	return f.err
}

type fakeConfirmer struct {
	calls        int
	confirmation *domain.Confirmation
	err          error
}

func (f *fakeConfirmer) RequestConfirmation(context.Context, domain.ConfirmationRequest) (*domain.Confirmation, error) {
	f.calls++
	return f.confirmation, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProtocol(inv LoanInvestor, conf domain.ConfirmationProvider, dryRun bool) *Protocol {
	p := NewProtocol(inv, conf, dryRun, discardLogger())
	p.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func rec(amount int64, confirmationRequired, protected bool) domain.Recommendation {
	r := domain.Recommendation{
		Loan:                 domain.Loan{ID: 42, Rating: domain.RatingA, TermInMonths: 36},
		Amount:               decimal.NewFromInt(amount),
		ConfirmationRequired: confirmationRequired,
	}
	if protected {
		end := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
		r.ProtectionWindowEnd = &end
	}
	return r
}

func TestDecideDryRunInvestsWithoutRemoteCalls(t *testing.T) {
	inv := &fakeInvestor{}
	conf := &fakeConfirmer{}
	p := newTestProtocol(inv, conf, true)

	out, err := p.Decide(context.Background(), rec(300, true, true), false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvested, out.Kind)
	assert.True(t, out.Amount.Equal(decimal.NewFromInt(300)))
	assert.Empty(t, inv.calls)
	assert.Zero(t, conf.calls)
}

func TestDecideSeenBeforeInvestsDirectly(t *testing.T) {
	inv := &fakeInvestor{}
	p := newTestProtocol(inv, nil, false)

	out, err := p.Decide(context.Background(), rec(300, false, false), true)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvested, out.Kind)
	require.Len(t, inv.calls, 1)
	assert.Equal(t, int64(42), inv.calls[0].loanID)
}

func TestDecideSeenBeforeRetainsDelegation(t *testing.T) {
	for name, r := range map[string]domain.Recommendation{
		"protected":             rec(300, false, true),
		"confirmation required": rec(300, true, false),
	} {
		t.Run(name, func(t *testing.T) {
			inv := &fakeInvestor{}
			conf := &fakeConfirmer{}
			p := newTestProtocol(inv, conf, false)

			out, err := p.Decide(context.Background(), r, true)
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeDelegated, out.Kind)
			assert.Empty(t, inv.calls, "retaining a prior delegation must not call out")
			assert.Zero(t, conf.calls)
		})
	}
}

func TestDecideConfirmationRequiredWithoutCapabilityFails(t *testing.T) {
	inv := &fakeInvestor{}
	p := newTestProtocol(inv, nil, false)

	out, err := p.Decide(context.Background(), rec(300, true, false), false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Kind)
	assert.Empty(t, inv.calls)
}

func TestDecideConfirmationRequiredAnswers(t *testing.T) {
	cases := map[string]struct {
		confirmation *domain.Confirmation
		wantKind     domain.OutcomeKind
		wantInvest   bool
	}{
		"no response": {nil, domain.OutcomeFailed, false},
		"rejected":    {&domain.Confirmation{Status: domain.ConfirmationRejected}, domain.OutcomeRejected, false},
		"delegated":   {&domain.Confirmation{Status: domain.ConfirmationDelegated}, domain.OutcomeDelegated, false},
		"approved":    {&domain.Confirmation{Status: domain.ConfirmationApproved, Amount: decimal.NewFromInt(250)}, domain.OutcomeInvested, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			inv := &fakeInvestor{}
			conf := &fakeConfirmer{confirmation: tc.confirmation}
			p := newTestProtocol(inv, conf, false)

			out, err := p.Decide(context.Background(), rec(300, true, false), false)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, out.Kind)
			assert.Equal(t, 1, conf.calls)
			if tc.wantInvest {
				require.Len(t, inv.calls, 1)
				assert.True(t, inv.calls[0].amount.Equal(decimal.NewFromInt(250)),
					"must invest the capability-confirmed amount")
				assert.True(t, out.Amount.Equal(decimal.NewFromInt(250)))
			} else {
				assert.Empty(t, inv.calls)
			}
		})
	}
}

func TestDecidePlainInvestsDirectly(t *testing.T) {
	inv := &fakeInvestor{}
	p := newTestProtocol(inv, nil, false)

	out, err := p.Decide(context.Background(), rec(500, false, false), false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvested, out.Kind)
	assert.True(t, out.Amount.Equal(decimal.NewFromInt(500)))
	require.Len(t, inv.calls, 1)
}

func TestDecideProtectedWithoutCapabilityRejects(t *testing.T) {
	inv := &fakeInvestor{}
	p := newTestProtocol(inv, nil, false)

	out, err := p.Decide(context.Background(), rec(300, false, true), false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, out.Kind)
	assert.Empty(t, inv.calls)
}

func TestDecideProtectedWithCapability(t *testing.T) {
	cases := map[string]struct {
		confirmation *domain.Confirmation
		wantKind     domain.OutcomeKind
	}{
		"no response": {nil, domain.OutcomeFailed},
		"delegated":   {&domain.Confirmation{Status: domain.ConfirmationDelegated}, domain.OutcomeDelegated},
		"approved":    {&domain.Confirmation{Status: domain.ConfirmationApproved}, domain.OutcomeRejected},
		"rejected":    {&domain.Confirmation{Status: domain.ConfirmationRejected}, domain.OutcomeRejected},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			inv := &fakeInvestor{}
			conf := &fakeConfirmer{confirmation: tc.confirmation}
			p := newTestProtocol(inv, conf, false)

			out, err := p.Decide(context.Background(), rec(300, false, true), false)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, out.Kind)
			assert.Empty(t, inv.calls, "no direct investment during a protected window")
		})
	}
}

func TestDecideLapsedProtectionWindowInvestsDirectly(t *testing.T) {
	inv := &fakeInvestor{}
	p := newTestProtocol(inv, nil, false)

	r := rec(300, false, false)
	end := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC) // before the fixed now
	r.ProtectionWindowEnd = &end

	out, err := p.Decide(context.Background(), r, false)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvested, out.Kind)
}

func TestDecideInvestFailurePropagates(t *testing.T) {
	boom := errors.New("marketplace down")
	inv := &fakeInvestor{err: boom}
	p := newTestProtocol(inv, nil, false)

	_, err := p.Decide(context.Background(), rec(300, false, false), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom,
		"a failed invest call leaves the money state uncertain and must propagate, not map to Failed")
}

func TestDecideConfirmationTransportErrorPropagates(t *testing.T) {
	boom := errors.New("confirmation service unreachable")
	conf := &fakeConfirmer{err: boom}
	p := newTestProtocol(&fakeInvestor{}, conf, false)

	_, err := p.Decide(context.Background(), rec(300, true, false), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
