package models

import "strings"

/*
Post annotation states. The string value is the marker class written into the page,
so these double as the tag vocabulary of the annotation sink.
*/

// ProcessingState is the lifecycle stage of a discovered post.
type ProcessingState string

const (
	StateNotProcessed  ProcessingState = "not-processed"
	StateProcessing    ProcessingState = "processing"
	StateUncategorized ProcessingState = "uncategorized"
	StateError         ProcessingState = "error"

	categoryStatePrefix = "category-"
)

// CategoryState is the state for a post assigned to the category with the given id.
func CategoryState(categoryID string) ProcessingState {
	return ProcessingState(categoryStatePrefix + categoryID)
}

// CategoryID returns the category id for a category-assigned state.
func (s ProcessingState) CategoryID() (string, bool) {
	if !strings.HasPrefix(string(s), categoryStatePrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(s), categoryStatePrefix), true
}

// Terminal reports whether no further transition is allowed for this discovery.
func (s ProcessingState) Terminal() bool {
	if _, ok := s.CategoryID(); ok {
		return true
	}
	return s == StateUncategorized || s == StateError
}

func (s ProcessingState) rank() int {
	switch {
	case s == StateNotProcessed:
		return 0
	case s == StateProcessing:
		return 1
	case s.Terminal():
		return 2
	}
	return -1
}

// CanTransition reports whether moving from s to next keeps the lifecycle monotonic.
func (s ProcessingState) CanTransition(next ProcessingState) bool {
	if s == "" {
		return next.rank() >= 0
	}
	if s.Terminal() || next.rank() < 0 {
		return false
	}
	return next.rank() > s.rank()
}

// DefaultLabel is the human-readable text used when no category name applies.
func (s ProcessingState) DefaultLabel() string {
	switch s {
	case StateNotProcessed:
		return "Not Processed"
	case StateProcessing:
		return "Processing..."
	case StateUncategorized:
		return "Uncategorized"
	case StateError:
		return "Error"
	}
	if id, ok := s.CategoryID(); ok {
		return id
	}
	return string(s)
}
