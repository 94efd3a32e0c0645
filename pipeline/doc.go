// Package pipeline runs one analysis job end to end: input rows are
// normalized into clauses, clustered, and decided, yielding one Advice
// per cluster plus the clause-to-cluster membership map.
//
// A job is strictly sequential and deterministic. Clustering order
// affects leader assignment, so it is never parallelized; the decision
// cascade runs per cluster in creation order. Cancellation is checked
// once per cluster. A panic while deciding one cluster routes that
// cluster to manual review with the failure recorded in the advice
// reason, so one bad input never aborts the job.
package pipeline
