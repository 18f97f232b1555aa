package clientports

// Option names understood by the dispatcher.
const (
	OptionHost         = "host"
	OptionEndpoint     = "endpoint"
	OptionHeader       = "header"
	OptionHeader1      = "header1"
	OptionRapidAPIHost = "rapid_api_host"
	OptionRapidAPIKey  = "rapid_api_key"
)

// KnownOptions lists every recognized option name.
var KnownOptions = []string{
	OptionHost,
	OptionEndpoint,
	OptionHeader,
	OptionHeader1,
	OptionRapidAPIHost,
	OptionRapidAPIKey,
}

// IsKnownOption reports whether name is one of KnownOptions.
func IsKnownOption(name string) bool {
	for _, known := range KnownOptions {
		if known == name {
			return true
		}
	}
	return false
}

// OptionSource supplies connection parameters. An absent option is reported
// with ok == false rather than an error.
type OptionSource interface {
	GetOption(name string) (value string, ok bool)
}
