package testmocks

import (
	"sort"

	"github.com/paulmach/osm"
)

type MockScanner struct {
	ScanFunc   func() bool
	ObjectFunc func() osm.Object
	ErrFunc    func() error
	CloseFunc  func() error
}

func (s *MockScanner) Scan() bool {
	return s.ScanFunc()
}

func (s *MockScanner) Object() osm.Object {
	return s.ObjectFunc()
}

func (s *MockScanner) Err() error {
	return s.ErrFunc()
}

func (s *MockScanner) Close() error {
	return s.CloseFunc()
}

func NewMockScannerFromObjects(objects ...osm.Object) *MockScanner {
	return NewFailingMockScanner(nil, objects...)
}

// NewFailingMockScanner returns the objects and then reports err, like a scanner hitting a corrupt block.
func NewFailingMockScanner(err error, objects ...osm.Object) *MockScanner {
	index := -1
	return &MockScanner{
		ScanFunc: func() bool {
			if index+1 >= len(objects) {
				return false
			}

			index++
			return true
		},
		ObjectFunc: func() osm.Object {
			return objects[index]
		},
		ErrFunc: func() error {
			if index+1 >= len(objects) {
				return err
			}
			return nil
		},
		CloseFunc: func() error {
			return nil
		},
	}
}

func Node(id int64, lat, lon float64) *osm.Node {
	return &osm.Node{ID: osm.NodeID(id), Lat: lat, Lon: lon, Visible: true}
}

func Way(id int64, nodes []int64, tags map[string]string) *osm.Way {
	wayNodes := make(osm.WayNodes, len(nodes))
	for i, n := range nodes {
		wayNodes[i] = osm.WayNode{ID: osm.NodeID(n)}
	}
	return &osm.Way{ID: osm.WayID(id), Nodes: wayNodes, Tags: tagsOf(tags), Visible: true}
}

func Relation(id int64, wayMembers []int64, tags map[string]string) *osm.Relation {
	members := make(osm.Members, len(wayMembers))
	for i, ref := range wayMembers {
		members[i] = osm.Member{Type: osm.TypeWay, Ref: ref}
	}
	return &osm.Relation{ID: osm.RelationID(id), Members: members, Tags: tagsOf(tags), Visible: true}
}

func tagsOf(m map[string]string) osm.Tags {
	tags := make(osm.Tags, 0, len(m))
	for k, v := range m {
		tags = append(tags, osm.Tag{Key: k, Value: v})
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Key < tags[j].Key
	})
	return tags
}
