package approval

import (
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
)

// Decision is an admin action on a campaign.
type Decision string

const (
	DecisionApprove    Decision = "approve"
	DecisionReject     Decision = "reject"
	DecisionDeactivate Decision = "deactivate"
)

// allowedTransitions maps each decision to the states it may act on.
// Rejected and inactive are terminal; nothing leaves them.
var allowedTransitions = map[Decision][]enums.CampaignState{
	DecisionApprove:    {enums.CampaignStateAwaitingApproval},
	DecisionReject:     {enums.CampaignStatePendingPayment, enums.CampaignStateAwaitingApproval},
	DecisionDeactivate: {enums.CampaignStateLive, enums.CampaignStateAwaitingApproval},
}

// CheckTransition validates a decision against the campaign's current state.
// The error message names the blocking condition so the admin dashboard can
// show why the action was refused.
func CheckTransition(campaign *models.Campaign, decision Decision) error {
	state := campaign.State()
	for _, allowed := range allowedTransitions[decision] {
		if state == allowed {
			return nil
		}
	}

	switch {
	case decision == DecisionApprove && state == enums.CampaignStatePendingPayment:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign pack payment is still awaiting payment")
	case decision == DecisionApprove && state == enums.CampaignStateLive:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is already approved")
	case state.IsTerminal():
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is closed and cannot change state")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			"campaign state does not allow this action")
	}
}
