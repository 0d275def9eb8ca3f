package domain

import "strings"

// Request is one inbound USSD interaction.
type Request struct {
	SessionID   string
	ServiceCode string
	PhoneNumber string

	// Path is every choice since session start joined by PathDelimiter.
	Path string
}

// Tokens splits the path into choices. An empty path has no tokens.
func (r Request) Tokens() []string {
	if r.Path == "" {
		return nil
	}
	return strings.Split(r.Path, PathDelimiter)
}

// Step records one token consumed at one node during traversal.
type Step struct {
	NodeID string
	Token  string
}

// Trail is the ordered list of steps the engine took for a request.
type Trail []Step

// TokenAt returns the token consumed at nodeID, scanning from the end.
func (t Trail) TokenAt(nodeID string) (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].NodeID == nodeID {
			return t[i].Token, true
		}
	}
	return "", false
}

// Visited reports whether the trail passed through nodeID.
func (t Trail) Visited(nodeID string) bool {
	_, ok := t.TokenAt(nodeID)
	return ok
}
