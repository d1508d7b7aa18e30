package search

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/totalquality/qassist/internal/models"
)

// MaxQueryLength bounds the query text accepted by Query.
const MaxQueryLength = 1000

// ErrQueryTooLong is returned when a query exceeds MaxQueryLength characters.
var ErrQueryTooLong = errors.New("query too long")

// ProcessQuery validates the search query. The text is not trimmed: the title
// phrase check matches the query exactly as typed.
func ProcessQuery(query *models.SearchQuery) error {
	if query == nil {
		return errors.New("query is required")
	}
	if utf8.RuneCountInString(query.Query) > MaxQueryLength {
		return fmt.Errorf("%w: max %d characters", ErrQueryTooLong, MaxQueryLength)
	}
	return nil
}
