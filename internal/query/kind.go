package query

// Kind is the closed set of construct kinds a capture can carry. Tags are
// mapped to a Kind once, when the query is compiled.
type Kind int

const (
	KindUnknown Kind = iota
	KindFunction
	KindFunctionName
	KindTry
	KindTryBlock
	KindCatch
	KindCatchBody
	KindThrow
	KindThrowType
	KindFinally
	KindElse
	KindReturn
	KindPass
	KindStatement
	KindCall
)

// Capture tags used by the pattern sets.
const (
	TagFunction     = "function.def"
	TagFunctionName = "function.name"
	TagTry          = "try.statement"
	TagTryBlock     = "try.block"
	TagCatch        = "catch.clause"
	TagCatchBody    = "catch.body"
	TagThrow        = "throw.statement"
	TagThrowType    = "throw.type"
	TagFinally      = "finally.clause"
	TagElse         = "else.clause"
	TagReturn       = "return.block"
	TagPass         = "pass"
	TagStatement    = "statement"
	TagCall         = "call.name"
)

var tagKinds = map[string]Kind{
	TagFunction:     KindFunction,
	TagFunctionName: KindFunctionName,
	TagTry:          KindTry,
	TagTryBlock:     KindTryBlock,
	TagCatch:        KindCatch,
	TagCatchBody:    KindCatchBody,
	TagThrow:        KindThrow,
	TagThrowType:    KindThrowType,
	TagFinally:      KindFinally,
	TagElse:         KindElse,
	TagReturn:       KindReturn,
	TagPass:         KindPass,
	TagStatement:    KindStatement,
	TagCall:         KindCall,
}

var kindNames = [...]string{
	KindUnknown:      "unknown",
	KindFunction:     "function",
	KindFunctionName: "function_name",
	KindTry:          "try",
	KindTryBlock:     "try_block",
	KindCatch:        "catch",
	KindCatchBody:    "catch_body",
	KindThrow:        "throw",
	KindThrowType:    "throw_type",
	KindFinally:      "finally",
	KindElse:         "else",
	KindReturn:       "return",
	KindPass:         "pass",
	KindStatement:    "statement",
	KindCall:         "call",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// KindForTag returns the Kind for a capture tag, or KindUnknown.
func KindForTag(tag string) Kind {
	return tagKinds[tag]
}
