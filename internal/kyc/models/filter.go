package models

// ApplicationFilter narrows application listings. Zero values match all.
type ApplicationFilter struct {
	CustomerID int64
	Statuses   []Status
	// ReviewQueue selects UNDER_REVIEW applications and any application
	// explicitly flagged for manual review.
	ReviewQueue bool
}

// Matches applies the filter to one application.
func (f ApplicationFilter) Matches(a *Application) bool {
	if f.CustomerID != 0 && a.CustomerID != f.CustomerID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ReviewQueue && !a.InReviewQueue() {
		return false
	}
	return true
}

// StatusStrings returns the status filter as plain strings.
func (f ApplicationFilter) StatusStrings() []string {
	out := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		out[i] = string(s)
	}
	return out
}
