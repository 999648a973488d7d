package verification

import (
	"regexp"
	"strconv"
)

// Task creation writes the subject into the description as "user ID: <n>".
var subjectMarker = regexp.MustCompile(`user ID: (\d+)`)

// ExtractSubjectID returns the user id embedded in a task description.
// Only the first marker counts. ok is false when there is no marker or the
// number does not fit a uint.
func ExtractSubjectID(description string) (id uint, ok bool) {
	m := subjectMarker.FindStringSubmatch(description)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
