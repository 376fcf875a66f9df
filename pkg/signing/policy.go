package signing

import (
	"fmt"

	"github.com/chainsafe/agent-associations/pkg/association"
)

// Policy is the ordered list of signing methods the negotiator may try.
type Policy []association.SignatureMethod

// DefaultPolicy tries raw digest signing before the typed-data variants.
var DefaultPolicy = Policy{
	association.MethodRawDigest,
	association.MethodTypedV4,
	association.MethodTypedV3,
}

// ParsePolicy builds a Policy from configured method names. An empty list
// yields DefaultPolicy. personal-sign and unknown names are rejected.
func ParsePolicy(names []string) (Policy, error) {
	if len(names) == 0 {
		return append(Policy(nil), DefaultPolicy...), nil
	}

	seen := make(map[association.SignatureMethod]struct{}, len(names))
	policy := make(Policy, 0, len(names))
	for _, name := range names {
		m := association.SignatureMethod(name)
		if !Supported(m) {
			return nil, fmt.Errorf("unsupported signing method %q", name)
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		policy = append(policy, m)
	}
	return policy, nil
}

// Supported reports whether m may ever be offered to a wallet.
func Supported(m association.SignatureMethod) bool {
	switch m {
	case association.MethodRawDigest, association.MethodTypedV4, association.MethodTypedV3:
		return true
	default:
		return false
	}
}

// Candidates returns the attempt order: preferred first when the policy
// allows it, then the policy order, without duplicates or excluded methods.
func (p Policy) Candidates(preferred association.SignatureMethod, exclude ...association.SignatureMethod) []association.SignatureMethod {
	skip := make(map[association.SignatureMethod]struct{}, len(exclude)+1)
	for _, m := range exclude {
		skip[m] = struct{}{}
	}
	skip[association.MethodPersonalSign] = struct{}{}

	out := make([]association.SignatureMethod, 0, len(p))
	add := func(m association.SignatureMethod) {
		if !Supported(m) {
			return
		}
		if _, ok := skip[m]; ok {
			return
		}
		skip[m] = struct{}{}
		out = append(out, m)
	}

	if preferred != "" && p.allows(preferred) {
		add(preferred)
	}
	for _, m := range p {
		add(m)
	}
	return out
}

// Alternate returns the first policy method other than m.
func (p Policy) Alternate(m association.SignatureMethod) (association.SignatureMethod, bool) {
	candidates := p.Candidates("", m)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// Except returns the policy methods other than m. Used as a Request's
// Exclude list it restricts negotiation to m alone.
func (p Policy) Except(m association.SignatureMethod) []association.SignatureMethod {
	out := make([]association.SignatureMethod, 0, len(p))
	for _, c := range p {
		if c != m {
			out = append(out, c)
		}
	}
	return out
}

func (p Policy) allows(m association.SignatureMethod) bool {
	for _, c := range p {
		if c == m {
			return true
		}
	}
	return false
}
