package nats

// NATS subject constants.
const (
	// SubjectLogicUpstream carries Access -> Logic command envelopes.
	SubjectLogicUpstream = "hanoi.logic.upstream"

	// Logic -> Access downstream subject pieces.
	// Full format: hanoi.access.{node_id}.downstream
	SubjectAccessDownstreamPrefix = "hanoi.access."
	SubjectAccessDownstreamSuffix = ".downstream"

	// QueueGroupLogic load-balances upstream consumption across logic
	// instances.
	QueueGroupLogic = "hanoi-logic-group"
)

// BuildAccessDownstreamSubject builds the downstream subject for one
// access node.
func BuildAccessDownstreamSubject(nodeID string) string {
	return SubjectAccessDownstreamPrefix + nodeID + SubjectAccessDownstreamSuffix
}
