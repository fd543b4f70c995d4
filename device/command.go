package device

// ParserState enumerates the states of the byte-at-a-time command parser.
type ParserState uint8

// Parser states, in transition order.
const (
	ExpectingType ParserState = iota
	ExpectingID
	ExpectingArg1
	ExpectingArg2
	Complete
)

// String returns a human-readable parser state name.
func (s ParserState) String() string {
	switch s {
	case ExpectingType:
		return "ExpectingType"
	case ExpectingID:
		return "ExpectingID"
	case ExpectingArg1:
		return "ExpectingArg1"
	case ExpectingArg2:
		return "ExpectingArg2"
	case Complete:
		return "Complete"
	default:
		return "Invalid"
	}
}

// Command is a parsed request of the form <TYPE><ID>[:<ARG1>[:<ARG2>]]\n.
type Command struct {
	Type DeviceKind
	ID   uint8
	Arg1 int32
	Arg2 int32
}

// Parser consumes bytes one at a time and accumulates a single Command.
// It is reset implicitly on completion or on any illegal byte.
type Parser struct {
	cmd   Command
	hasID bool
	state ParserState
}

// NewParser returns a Parser ready to receive the first byte of a command.
func NewParser() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// Reset returns the parser to ExpectingType with an Unknown, zeroed command.
func (p *Parser) Reset() {
	p.cmd = Command{Type: KindUnknown}
	p.hasID = false
	p.state = ExpectingType
}

// State returns the parser's current state.
func (p *Parser) State() ParserState {
	return p.state
}

// Write feeds one byte to the parser. It returns true and the completed
// command when '\n' finalizes a well-formed command; otherwise it returns
// false. A zero-value Command is returned whenever ok is false.
func (p *Parser) Write(c byte) (Command, bool) {
	switch c {
	case '\r':
		// Ignored in every state.
		return Command{}, false
	case '\n':
		if p.cmd.Type != KindUnknown && p.hasID {
			done := p.cmd
			p.Reset()
			return done, true
		}
		p.Reset()
		return Command{}, false
	case ':':
		switch p.state {
		case ExpectingArg1:
			p.state = ExpectingArg2
		case ExpectingID:
			// A ':' before any digit has been seen for the ID is illegal.
			if p.hasID {
				p.state = ExpectingArg1
			} else {
				p.Reset()
			}
		default:
			p.Reset()
		}
		return Command{}, false
	}

	switch p.state {
	case ExpectingType:
		switch c {
		case 'c', 'C':
			p.cmd.Type = KindCommon
		case 'w', 'W':
			p.cmd.Type = KindWatchdog
		case 'r', 'R':
			p.cmd.Type = KindRNG
		case 'n', 'N':
			p.cmd.Type = KindRadio
		default:
			// Stay in ExpectingType with Unknown type; leading garbage
			// bytes are silently tolerated.
			return Command{}, false
		}
	case ExpectingID:
		if c < '0' || c > '9' || p.hasID {
			p.Reset()
			return Command{}, false
		}
		p.cmd.ID = c - '0'
		p.hasID = true
		return Command{}, false
	case ExpectingArg1:
		if c < '0' || c > '9' {
			p.Reset()
			return Command{}, false
		}
		// Overflow wrap is acceptable, matching the firmware's int32 arg
		// accumulation.
		p.cmd.Arg1 = p.cmd.Arg1*10 + int32(c-'0')
		return Command{}, false
	case ExpectingArg2:
		if c < '0' || c > '9' {
			p.Reset()
			return Command{}, false
		}
		p.cmd.Arg2 = p.cmd.Arg2*10 + int32(c-'0')
		return Command{}, false
	default:
		p.Reset()
		return Command{}, false
	}

	// Type character consumed; advance to ExpectingID for the next byte.
	p.state = ExpectingID
	return Command{}, false
}
