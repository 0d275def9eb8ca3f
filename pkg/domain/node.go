package domain

// SuccessorKind tells the engine what a choice resolves to.
type SuccessorKind int

const (
	// SuccessorMenu continues traversal at another menu node.
	SuccessorMenu SuccessorKind = iota + 1
	// SuccessorImmediate runs a language switch and stops traversal.
	SuccessorImmediate
	// SuccessorTerminal runs a terminal action and ends the session.
	SuccessorTerminal
)

func (k SuccessorKind) String() string {
	switch k {
	case SuccessorMenu:
		return "menu"
	case SuccessorImmediate:
		return "immediate"
	case SuccessorTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Successor is the target of a menu edge.
type Successor struct {
	Kind   SuccessorKind
	Target string

	// Locale, when set on a menu edge, switches the session language as the edge is taken.
	Locale Locale
}

func (s Successor) String() string {
	if s.Locale != "" {
		return s.Kind.String() + ":" + s.Target + "@" + string(s.Locale)
	}
	return s.Kind.String() + ":" + s.Target
}

// Menu builds an edge to another menu node.
func Menu(nodeID string) Successor {
	return Successor{Kind: SuccessorMenu, Target: nodeID}
}

// MenuIn builds an edge to another menu node that also switches the session language.
func MenuIn(nodeID string, locale Locale) Successor {
	return Successor{Kind: SuccessorMenu, Target: nodeID, Locale: locale}
}

// Immediate builds an edge to an immediate (language) handler.
func Immediate(handlerID string) Successor {
	return Successor{Kind: SuccessorImmediate, Target: handlerID}
}

// Terminal builds an edge to a terminal handler.
func Terminal(handlerID string) Successor {
	return Successor{Kind: SuccessorTerminal, Target: handlerID}
}

// MenuNode is one screen of the catalog.
type MenuNode struct {
	ID string

	// Prompt is the rendered text, already prefixed with ContinuePrefix or EndPrefix.
	Prompt string

	// Choices maps a literal key to its successor. WildcardKey matches free text.
	Choices map[string]Successor

	// AcceptsFreeText routes unmatched input through the wildcard and captures it.
	AcceptsFreeText bool

	// CapturesAs names the captured field. Empty means the node ID.
	CapturesAs string
}

// CaptureKey is the key free text entered at this node is stored under.
func (n MenuNode) CaptureKey() string {
	if n.CapturesAs != "" {
		return n.CapturesAs
	}
	return n.ID
}

// Next resolves a token against the node's choices.
// A literal key always wins over the wildcard. The wildcard only applies to
// non-empty input on nodes that accept free text.
func (n MenuNode) Next(token string) (Successor, bool) {
	if token != WildcardKey {
		if s, ok := n.Choices[token]; ok {
			return s, true
		}
	}
	if n.AcceptsFreeText && token != "" {
		if s, ok := n.Choices[WildcardKey]; ok {
			return s, true
		}
	}
	return Successor{}, false
}

// Terminal reports whether the node ends the session when shown.
func (n MenuNode) Terminal() bool {
	return len(n.Prompt) >= len(EndPrefix) && n.Prompt[:len(EndPrefix)] == EndPrefix
}
