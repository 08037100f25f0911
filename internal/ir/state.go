package ir

import "fmt"

// SetupState is the lifecycle state of a module with respect to setup.
//
//	NotApplicable - the catalog item has no setup concept
//	NeedsSetup    - setup is required and not done
//	SetUp         - setup is done and the module is active
type SetupState uint8

const (
	NotApplicable SetupState = iota
	NeedsSetup
	SetUp
)

var setupStateNames = [...]string{
	NotApplicable: "not_applicable",
	NeedsSetup:    "needs_setup",
	SetUp:         "set_up",
}

// String returns the stored name of the state.
func (s SetupState) String() string {
	if int(s) < len(setupStateNames) {
		return setupStateNames[s]
	}
	return fmt.Sprintf("SetupState(%d)", uint8(s))
}

// Clickable is true for NotApplicable and SetUp.
func (s SetupState) Clickable() bool {
	return s == NotApplicable || s == SetUp
}

// InitialSetupState is the state a freshly placed module starts in.
func InitialSetupState(setupable bool) SetupState {
	if setupable {
		return NeedsSetup
	}
	return NotApplicable
}

// ParseSetupState parses a stored state name.
func ParseSetupState(s string) (SetupState, error) {
	for i, name := range setupStateNames {
		if name == s {
			return SetupState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown setup state %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s SetupState) MarshalText() ([]byte, error) {
	if int(s) >= len(setupStateNames) {
		return nil, fmt.Errorf("invalid setup state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SetupState) UnmarshalText(b []byte) error {
	v, err := ParseSetupState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
