package model

// RoutePath names which retrieval path the agent took for a question.
type RoutePath string

const (
	RoutePathSQL      RoutePath = "sql"
	RoutePathSemantic RoutePath = "semantic"
	RoutePathBoth     RoutePath = "both"
	RoutePathNone     RoutePath = "none"
)

// CapabilityCall records one capability invocation made by the agent.
type CapabilityCall struct {
	Capability string            `json:"capability"`
	Args       map[string]string `json:"args"`
	Result     string            `json:"result,omitempty"`
	Err        string            `json:"error,omitempty"`
}

// RouteDecision is the per-question audit trail of what the agent did.
type RouteDecision struct {
	QuestionID  string           `json:"question_id"`
	Question    string           `json:"question"`
	ChosenPath  RoutePath        `json:"chosen_path"`
	Invocations []CapabilityCall `json:"invocations"`
}

// Resolve derives ChosenPath from the recorded invocations.
func (d *RouteDecision) Resolve() {
	var sql, semantic bool
	for _, call := range d.Invocations {
		switch call.Capability {
		case "query_structured":
			sql = true
		case "semantic_search":
			semantic = true
		}
	}
	switch {
	case sql && semantic:
		d.ChosenPath = RoutePathBoth
	case sql:
		d.ChosenPath = RoutePathSQL
	case semantic:
		d.ChosenPath = RoutePathSemantic
	default:
		d.ChosenPath = RoutePathNone
	}
}
