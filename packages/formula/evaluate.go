package formula

// Evaluate computes the formula's value using the standard two-stack
// algorithm. lookup is asked for every variable occurrence. the returned
// error is always a *Error: ErrDivisionByZero when a divisor is zero,
// ErrUndefinedVariable when lookup fails.
func (f *Formula) Evaluate(lookup Lookup) (float64, error) {
	values := make([]float64, 0, len(f.tokens)/2+1)
	ops := make([]byte, 0, len(f.tokens)/2+1)

	topIs := func(candidates ...byte) bool {
		if len(ops) == 0 {
			return false
		}
		top := ops[len(ops)-1]
		for _, c := range candidates {
			if top == c {
				return true
			}
		}
		return false
	}

	// apply pops one operator and two operands, pushing left op right
	apply := func() *Error {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		right := values[len(values)-1]
		left := values[len(values)-2]
		values = values[:len(values)-2]

		var result float64
		switch op {
		case '+':
			result = left + right
		case '-':
			result = left - right
		case '*':
			result = left * right
		case '/':
			if right == 0 {
				return divisionByZero()
			}
			result = left / right
		}
		values = append(values, result)
		return nil
	}

	// pushValue places an operand and folds any pending * or /
	pushValue := func(v float64) *Error {
		values = append(values, v)
		if topIs('*', '/') {
			return apply()
		}
		return nil
	}

	for _, tok := range f.tokens {
		switch tok.Type {
		case TokenNumber:
			// already checked during construction
			v, _ := parseNumber(tok.Value)
			if err := pushValue(v); err != nil {
				return 0, err
			}
		case TokenVariable:
			v, err := lookup(tok.Value)
			if err != nil {
				return 0, undefinedVariable(tok.Value)
			}
			if err := pushValue(v); err != nil {
				return 0, err
			}
		case TokenOperator:
			op := tok.Value[0]
			if (op == '+' || op == '-') && topIs('+', '-') {
				if err := apply(); err != nil {
					return 0, err
				}
			}
			ops = append(ops, op)
		case TokenLeftParen:
			ops = append(ops, '(')
		case TokenRightParen:
			if topIs('+', '-') {
				if err := apply(); err != nil {
					return 0, err
				}
			}
			// pop the matching '('
			ops = ops[:len(ops)-1]
			if topIs('*', '/') {
				if err := apply(); err != nil {
					return 0, err
				}
			}
		}
	}

	if len(ops) > 0 {
		if err := apply(); err != nil {
			return 0, err
		}
	}
	return values[0], nil
}
