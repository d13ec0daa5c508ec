package stats

// Holder is an entity carrying statistics and possibly nested entities
// carrying their own.
type Holder interface {
	Statistics() Statistics
	Children() []Holder
}

// LocalSubnet is a subnet as seen by a single server.
type LocalSubnet struct {
	Server string
	Stats  Statistics
}

func (l *LocalSubnet) Statistics() Statistics {
	if l == nil {
		return nil
	}
	return l.Stats
}

func (l *LocalSubnet) Children() []Holder { return nil }

// Subnet aggregates the local subnets of all servers serving it.
type Subnet struct {
	ID            int64
	Prefix        string
	SharedNetwork string
	Stats         Statistics
	LocalSubnets  []*LocalSubnet
}

func (s *Subnet) Statistics() Statistics {
	if s == nil {
		return nil
	}
	return s.Stats
}

func (s *Subnet) Children() []Holder {
	if s == nil {
		return nil
	}
	children := make([]Holder, 0, len(s.LocalSubnets))
	for _, l := range s.LocalSubnets {
		if l != nil {
			children = append(children, l)
		}
	}
	return children
}

// SharedNetwork groups subnets.
type SharedNetwork struct {
	Name    string
	Stats   Statistics
	Subnets []*Subnet
}

func (n *SharedNetwork) Statistics() Statistics {
	if n == nil {
		return nil
	}
	return n.Stats
}

func (n *SharedNetwork) Children() []Holder {
	if n == nil {
		return nil
	}
	children := make([]Holder, 0, len(n.Subnets))
	for _, s := range n.Subnets {
		if s != nil {
			children = append(children, s)
		}
	}
	return children
}

// Normalize converts integer-looking strings to *big.Int in the
// statistics of every root and everything nested below it.
func Normalize(roots ...Holder) {
	for _, h := range roots {
		if h == nil {
			continue
		}
		if s := h.Statistics(); s != nil {
			NormalizeMap(s)
		}
		Normalize(h.Children()...)
	}
}
