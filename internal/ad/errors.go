package ad

// The messages on these errors are safe to show to an end user. Anything
// with internal detail (the filter, the target DN, the underlying LDAP
// error) is logged before the error is returned.

const (
	unknownErrorMsg = "An unknown issue was encountered. Please contact the administrator for help."
	failedSearchMsg = "An error occurred while searching Active Directory. Please contact the administrator for help."
)

// ConfigurationError means a required setting is missing or invalid. It is
// fatal until an operator fixes the configuration.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ADError is an operational directory failure: unreachable server, search
// with no results where results were required, a failed privileged write,
// or a failed service-account bind.
type ADError struct {
	Msg string
}

func (e *ADError) Error() string { return e.Msg }

// AuthError is an end-user authentication failure. Its message is safe to
// display verbatim.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

// ValidationError means caller input failed a policy check. The message
// names the violated rule.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
