// Package auth resolves the GitHub credential attached to outbound API calls
// and implements the OAuth login boundary that produces per-visitor tokens.
package auth

// Provenance identifies where a credential came from.
type Provenance string

const (
	// ProvenanceNone is anonymous access.
	ProvenanceNone Provenance = "none"
	// ProvenanceSession is a per-visitor OAuth token.
	ProvenanceSession Provenance = "session"
	// ProvenanceShared is the configured shared application token.
	ProvenanceShared Provenance = "shared"
	// ProvenanceApp is a GitHub App installation token.
	ProvenanceApp Provenance = "app"
)

// Credential is an optional bearer token plus its provenance. A zero value
// means anonymous access.
type Credential struct {
	Token      string
	Provenance Provenance
}

// Anonymous is the no-credential value.
func Anonymous() Credential {
	return Credential{Provenance: ProvenanceNone}
}

// IsZero reports whether the credential carries no token.
func (c Credential) IsZero() bool {
	return c.Token == ""
}
