package negotiation

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
)

// EvaluateSharePolicy evaluates a deployment-level share policy expression
// against a proposed value. The expression sees `value` (the proposed
// share), `count` (roster size) and `total` (last persisted session total).
// An empty policy accepts everything; the built-in [10,90] bounds are
// checked separately, so a policy can only tighten them.
func EvaluateSharePolicy(policy string, value float64, count int, total float64) (bool, error) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return true, nil
	}
	switch strings.ToLower(policy) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	expr, err := govaluate.NewEvaluableExpression(policy)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(map[string]interface{}{
		"value": value,
		"count": float64(count),
		"total": total,
	})
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, errors.New("share policy did not evaluate to boolean")
	}
	return b, nil
}
