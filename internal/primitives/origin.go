package primitives

type OriginKind uint8

const (
	OriginNone OriginKind = iota
	OriginSigned
	// OriginRoot is the privileged governance origin.
	OriginRoot
)

// Origin is the caller of an operation.
type Origin struct {
	Kind    OriginKind
	Account AccountId
}

func Signed(account AccountId) Origin {
	return Origin{Kind: OriginSigned, Account: account}
}

func Root() Origin {
	return Origin{Kind: OriginRoot}
}

func None() Origin {
	return Origin{Kind: OriginNone}
}

// Signer returns the signing account, if the origin is signed.
func (o Origin) Signer() (AccountId, bool) {
	if o.Kind != OriginSigned {
		return AccountId{}, false
	}
	return o.Account, true
}

func (o Origin) IsRoot() bool {
	return o.Kind == OriginRoot
}

func (o Origin) String() string {
	switch o.Kind {
	case OriginSigned:
		return o.Account.String()
	case OriginRoot:
		return "root"
	default:
		return "none"
	}
}
