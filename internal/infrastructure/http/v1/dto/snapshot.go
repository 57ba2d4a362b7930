package dto

// RegisterRuleRequest registers a custom warning rule. The expression
// is a CEL predicate over quantity, available, lockQuantity and
// daysToExpiry; it must evaluate to a boolean.
type RegisterRuleRequest struct {
	Name       string `json:"name" binding:"required"`
	Expression string `json:"expression" binding:"required"`
}
