package enums

import "fmt"

// NotificationType buckets in-app notifications on the admin dashboard.
type NotificationType string

const (
	NotificationTypeCampaign  NotificationType = "campaign"
	NotificationTypePackOrder NotificationType = "pack_order"
	NotificationTypeDonation  NotificationType = "donation"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeCampaign,
	NotificationTypePackOrder,
	NotificationTypeDonation,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
