package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteDecision_Resolve(t *testing.T) {
	cases := []struct {
		name  string
		calls []CapabilityCall
		want  RoutePath
	}{
		{"no invocations", nil, RoutePathNone},
		{"sql only", []CapabilityCall{{Capability: "query_structured"}}, RoutePathSQL},
		{"semantic only", []CapabilityCall{{Capability: "semantic_search"}}, RoutePathSemantic},
		{"both", []CapabilityCall{
			{Capability: "query_structured"},
			{Capability: "semantic_search"},
		}, RoutePathBoth},
		{"repeat sql stays sql", []CapabilityCall{
			{Capability: "query_structured"},
			{Capability: "query_structured"},
		}, RoutePathSQL},
		{"unknown capability ignored", []CapabilityCall{
			{Capability: "something_else"},
		}, RoutePathNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &RouteDecision{Invocations: tc.calls}
			d.Resolve()
			assert.Equal(t, tc.want, d.ChosenPath)
		})
	}
}

func TestEntityRecord_Key(t *testing.T) {
	a := EntityRecord{Company: "acme", Year: "2021"}
	b := EntityRecord{Company: "acme", Year: "2021"}
	c := EntityRecord{Company: "acme", Year: "2020"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestAllEntityTypes(t *testing.T) {
	assert.Equal(t, []EntityType{EntityRevenue, EntityRisks, EntityHumanCapital}, AllEntityTypes())
}
