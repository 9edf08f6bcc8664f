package property

import (
	"fmt"
	"time"

	"github.com/go-rental-api/internal/domain"
)

const rejectionReasonPreview = 50

func submissionMessage(title, landlordEmail string) string {
	return fmt.Sprintf("New property %q submitted by %s", title, landlordEmail)
}

func resubmissionMessage(title, landlordEmail string) string {
	return fmt.Sprintf("Property %q resubmitted by %s", title, landlordEmail)
}

func verificationMessage(title string) string {
	return fmt.Sprintf("Your property '%s' has been verified and is now live!", title)
}

func rejectionMessage(title, reason string) string {
	return fmt.Sprintf("Your property '%s' needs revision. Reason: %s...", title, domain.Truncate(reason, rejectionReasonPreview))
}

func featuredUpgradeMessage(title string, days int, until time.Time) string {
	return fmt.Sprintf("Your property '%s' has been upgraded to featured status for %d days! It will be highlighted until %s.",
		title, days, until.Format("Jan 02, 2006"))
}

func featuredRenewedMessage(title string, days int, until time.Time) string {
	return fmt.Sprintf("Featured status for '%s' renewed for %d days. It will be highlighted until %s.",
		title, days, until.Format("Jan 02, 2006"))
}

func featuredAdminMessage(landlordEmail, title string, amount int) string {
	return fmt.Sprintf("%s upgraded property '%s' to featured. Payment: %d ETB.", landlordEmail, title, amount)
}

func featuredExpiringMessage(title string, daysLeft int) string {
	return fmt.Sprintf("Featured status for '%s' expires in %d days. Renew to maintain visibility.", title, daysLeft)
}

func featuredExpiredMessage(title string) string {
	return fmt.Sprintf("Featured status for '%s' has expired. It is no longer highlighted in search results.", title)
}

func viewMessage(viewerName, title string) string {
	return fmt.Sprintf("%s viewed your property '%s'", viewerName, title)
}
