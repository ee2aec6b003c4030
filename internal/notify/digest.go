package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
)

// OverdueDigest renders the overdue-deadline alert for one institution.
// It lists the preview items and notes how many more are overdue.
func OverdueDigest(institution string, d domain.Deadlines) (title, message string) {
	title = fmt.Sprintf("%s: %d overdue NIL disclosure(s)", institution, d.Overdue)

	var b strings.Builder
	for _, item := range d.OverdueItems {
		fmt.Fprintf(&b, "- %s / %s ($%.2f), due %s\n",
			item.AthleteName, item.DealName, item.Amount, item.Deadline.UTC().Format(time.DateOnly))
	}
	if more := d.Overdue - len(d.OverdueItems); more > 0 {
		fmt.Fprintf(&b, "...and %d more\n", more)
	}
	if d.Today > 0 {
		fmt.Fprintf(&b, "%d more due today\n", d.Today)
	}
	return title, strings.TrimRight(b.String(), "\n")
}
