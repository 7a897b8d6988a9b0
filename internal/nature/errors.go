package nature

import (
	"fmt"

	"github.com/mvp-joe/typelink/internal/errors"
)

// Error kinds. Test with errors.Is; the message of a concrete error carries
// the detail.
var (
	// ErrEntityExist marks a second registration of a name.
	ErrEntityExist = errors.New("entity already exists")

	// ErrParsing marks a recognized construct the model cannot represent.
	ErrParsing = errors.New("parsing error")

	// ErrNotSupported marks a node form outside the classifiable set.
	ErrNotSupported = errors.New("not supported")
)

// EntityExistError reports the name that was registered twice.
type EntityExistError struct {
	Name string
}

func (e *EntityExistError) Error() string {
	return fmt.Sprintf("entity %q already exists", e.Name)
}

// Is makes errors.Is(err, ErrEntityExist) hold.
func (e *EntityExistError) Is(target error) bool {
	return target == ErrEntityExist
}

func entityExist(name string) error {
	return errors.WithStack(&EntityExistError{Name: name})
}

func parsingf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrParsing)
}

func notSupported(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotSupported)
}
