package corpus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateIdentity matches any identity collision via errors.Is.
var ErrDuplicateIdentity = errors.New("duplicate document identity")

// DuplicateIdentityError reports two documents resolving to the same slug.
// It is always surfaced; there is no automatic winner between the paths.
type DuplicateIdentityError struct {
	Slug  string
	Paths []string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate document identity %q: %s", e.Slug, strings.Join(e.Paths, ", "))
}

func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}
