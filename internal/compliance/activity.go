package compliance

import (
	"fmt"
	"sort"

	"github.com/chatnil/compliancehub/internal/domain"
)

// MaxRecentActivity caps the activity feed.
const MaxRecentActivity = 5

// ActivityDealSubmitted is the activity type for a new deal.
const ActivityDealSubmitted = "deal_submitted"

func submittedActivity(a domain.Athlete, deal domain.Deal) domain.Activity {
	name := a.DisplayName()
	return domain.Activity{
		ID:          deal.ID,
		Type:        ActivityDealSubmitted,
		Description: fmt.Sprintf("%s submitted deal with %s", name, deal.Name()),
		Timestamp:   deal.CreatedAt,
		AthleteName: name,
		DealName:    deal.Name(),
	}
}

// latestActivity sorts newest first and truncates in place.
func latestActivity(items []domain.Activity) []domain.Activity {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if len(items) > MaxRecentActivity {
		items = items[:MaxRecentActivity]
	}
	return items
}
