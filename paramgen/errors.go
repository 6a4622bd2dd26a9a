package paramgen

import "github.com/Lafeng/nobus/exception"

var (
	ErrInvalidParams   = exception.New(30, "paramgen: invalid parameters")
	ErrBudgetExhausted = exception.New(31, "paramgen: not found within budget of")
)
