package remote

import (
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// Secret holds the session password. It redacts itself when formatted or
// marshaled so it never ends up in logs or JSON output.
type Secret []byte

// NewSecret copies in into a Secret.
func NewSecret(in string) Secret {
	return Secret([]byte(in))
}

func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so %v, %#v and %q are redacted too.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts the secret.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// Empty reports whether no password was given.
func (s Secret) Empty() bool { return len(s) == 0 }

// Reveal returns the password as a string. Only the dial and sudo paths
// should call this.
func (s Secret) Reveal() string { return string(s) }

// line returns the password followed by a newline, the form sudo -S reads.
func (s Secret) line() []byte {
	out := make([]byte, 0, len(s)+1)
	out = append(out, s...)
	return append(out, '\n')
}

// Zero overwrites the underlying bytes.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
	*s = nil
}
