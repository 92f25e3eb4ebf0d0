package osmparser

type Kind uint8

const (
	KindNode Kind = iota
	KindWay
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	}
	return "unknown"
}

type RawNode struct {
	ID  int64
	Lat float64
	Lon float64
}

type RawWay struct {
	ID    int64
	Nodes []int64
	Tags  map[string]string
}

type RawMember struct {
	Type string // node, way or relation
	Ref  int64
	Role string
}

type RawRelation struct {
	ID      int64
	Members []RawMember
	Tags    map[string]string
}

// Record is one decoded map object. exactly one of Node, Way, Relation is set, selected by Kind.
type Record struct {
	Kind     Kind
	Node     RawNode
	Way      *RawWay
	Relation *RawRelation
}

func NodeRecord(n RawNode) Record {
	return Record{Kind: KindNode, Node: n}
}

func WayRecord(w *RawWay) Record {
	return Record{Kind: KindWay, Way: w}
}

func RelationRecord(r *RawRelation) Record {
	return Record{Kind: KindRelation, Relation: r}
}
