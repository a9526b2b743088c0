package attendance

import (
	"errors"
	"fmt"
)

// ErrDuplicateScan flags a scan suppressed by the debounce window. The caller
// may drop it silently; nothing was recorded.
var ErrDuplicateScan = errors.New("duplicate scan ignored")

// UnknownStudentError reports an identifier that matched no student. The user
// corrects the input and retries.
type UnknownStudentError struct {
	ID string
}

func (e *UnknownStudentError) Error() string {
	return fmt.Sprintf("invalid student id: %s", e.ID)
}
