package approval

import (
	"strings"
	"testing"
	"time"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
)

func campaignInState(state enums.CampaignState) *models.Campaign {
	c := &models.Campaign{IsActive: true, PackPaymentStatus: enums.PaymentStatusPending}
	switch state {
	case enums.CampaignStatePendingPayment:
	case enums.CampaignStateAwaitingApproval:
		c.PackPaymentStatus = enums.PaymentStatusCompleted
	case enums.CampaignStateLive:
		c.PackPaymentStatus = enums.PaymentStatusCompleted
		c.IsApproved = true
	case enums.CampaignStateRejected:
		c.IsActive = false
		rejectedAt := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
		c.RejectedAt = &rejectedAt
	case enums.CampaignStateInactive:
		c.IsActive = false
	}
	return c
}

// A campaign deactivated before approval stays inactive, not rejected; only
// an explicit rejection stamps rejected_at.
func TestDeactivatedUnapprovedCampaignIsInactive(t *testing.T) {
	c := &models.Campaign{
		IsActive:          false,
		IsApproved:        false,
		PackPaymentStatus: enums.PaymentStatusCompleted,
	}
	if got := c.State(); got != enums.CampaignStateInactive {
		t.Fatalf("state = %s, want %s", got, enums.CampaignStateInactive)
	}
}

func TestCampaignStateDerivation(t *testing.T) {
	for _, state := range []enums.CampaignState{
		enums.CampaignStatePendingPayment,
		enums.CampaignStateAwaitingApproval,
		enums.CampaignStateLive,
		enums.CampaignStateRejected,
		enums.CampaignStateInactive,
	} {
		if got := campaignInState(state).State(); got != state {
			t.Fatalf("fixture for %s derives %s", state, got)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		name     string
		state    enums.CampaignState
		decision Decision
		wantErr  string
	}{
		{name: "approve awaiting", state: enums.CampaignStateAwaitingApproval, decision: DecisionApprove},
		{name: "approve unpaid", state: enums.CampaignStatePendingPayment, decision: DecisionApprove, wantErr: "awaiting payment"},
		{name: "approve live", state: enums.CampaignStateLive, decision: DecisionApprove, wantErr: "already approved"},
		{name: "approve rejected", state: enums.CampaignStateRejected, decision: DecisionApprove, wantErr: "closed"},
		{name: "approve inactive", state: enums.CampaignStateInactive, decision: DecisionApprove, wantErr: "closed"},
		{name: "reject unpaid", state: enums.CampaignStatePendingPayment, decision: DecisionReject},
		{name: "reject awaiting", state: enums.CampaignStateAwaitingApproval, decision: DecisionReject},
		{name: "reject live", state: enums.CampaignStateLive, decision: DecisionReject, wantErr: "does not allow"},
		{name: "reject rejected", state: enums.CampaignStateRejected, decision: DecisionReject, wantErr: "closed"},
		{name: "deactivate live", state: enums.CampaignStateLive, decision: DecisionDeactivate},
		{name: "deactivate awaiting", state: enums.CampaignStateAwaitingApproval, decision: DecisionDeactivate},
		{name: "deactivate unpaid", state: enums.CampaignStatePendingPayment, decision: DecisionDeactivate, wantErr: "does not allow"},
		{name: "deactivate inactive", state: enums.CampaignStateInactive, decision: DecisionDeactivate, wantErr: "closed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(campaignInState(tc.state), tc.decision)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected allowed, got %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
				t.Fatalf("expected state conflict, got %v", err)
			}
			if !strings.Contains(typed.Message(), tc.wantErr) {
				t.Fatalf("message %q does not name the blocker %q", typed.Message(), tc.wantErr)
			}
		})
	}
}
