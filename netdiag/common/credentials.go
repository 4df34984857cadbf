package common

// Credentials holds what is needed to log into a remote vantage host.
type Credentials struct {
	User          string
	Password      string
	KeyPassphrase string
}
