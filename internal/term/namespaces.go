package term

// Builtin and vocabulary namespaces. These are bit-exact wire constants.
const (
	NSCrypto = "http://www.w3.org/2000/10/swap/crypto#"
	NSMath   = "http://www.w3.org/2000/10/swap/math#"
	NSTime   = "http://www.w3.org/2000/10/swap/time#"
	NSList   = "http://www.w3.org/2000/10/swap/list#"
	NSLog    = "http://www.w3.org/2000/10/swap/log#"
	NSString = "http://www.w3.org/2000/10/swap/string#"

	NSRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXSD = "http://www.w3.org/2001/XMLSchema#"

	// SkolemNS prefixes the IRIs minted by log:skolem. Head existentials are
	// minted as sk_<n> blank labels instead.
	SkolemNS = "http://www.w3.org/2000/10/swap/genid#"
)

const (
	RDFType  = NSRDF + "type"
	RDFFirst = NSRDF + "first"
	RDFRest  = NSRDF + "rest"
	RDFNil   = NSRDF + "nil"

	XSDString   = NSXSD + "string"
	XSDBoolean  = NSXSD + "boolean"
	XSDInteger  = NSXSD + "integer"
	XSDDecimal  = NSXSD + "decimal"
	XSDFloat    = NSXSD + "float"
	XSDDouble   = NSXSD + "double"
	XSDDateTime = NSXSD + "dateTime"

	LogImplies   = NSLog + "implies"
	LogImpliedBy = NSLog + "impliedBy"
)
