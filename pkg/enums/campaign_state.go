package enums

import "fmt"

// CampaignState is the derived lifecycle state of a campaign, computed from
// its approval/active flags and the linked pack order's payment status.
type CampaignState string

const (
	CampaignStatePendingPayment   CampaignState = "pending_payment"
	CampaignStateAwaitingApproval CampaignState = "awaiting_approval"
	CampaignStateLive             CampaignState = "live"
	CampaignStateRejected         CampaignState = "rejected"
	CampaignStateInactive         CampaignState = "inactive"
)

var validCampaignStates = []CampaignState{
	CampaignStatePendingPayment,
	CampaignStateAwaitingApproval,
	CampaignStateLive,
	CampaignStateRejected,
	CampaignStateInactive,
}

// String implements fmt.Stringer.
func (s CampaignState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CampaignState.
func (s CampaignState) IsValid() bool {
	for _, candidate := range validCampaignStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave the state.
func (s CampaignState) IsTerminal() bool {
	return s == CampaignStateRejected || s == CampaignStateInactive
}

// ParseCampaignState converts raw input into a CampaignState.
func ParseCampaignState(value string) (CampaignState, error) {
	for _, candidate := range validCampaignStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign state %q", value)
}
