package bgpinfo

import "github.com/pkg/errors"

// error kinds, test with errors.Is
var (
	// ErrBootstrap the site refused to unlock the session
	ErrBootstrap = errors.New("[bgpinfo] bootstrap failed")

	// ErrShape the page does not look like what the parser knows
	ErrShape = errors.New("[bgpinfo] unexpected page shape")

	// ErrPrecondition bad caller input or api misuse
	ErrPrecondition = errors.New("[bgpinfo] precondition violated")
)
