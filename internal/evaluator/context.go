package evaluator

// Context maps variable names to values: numbers, booleans, strings, or one
// level of nested map[string]interface{}.
type Context map[string]interface{}

// Copy returns a copy of c that shares no mutable state with it. Nested
// mappings are copied as well, since property assignment writes into them.
func (c Context) Copy() Context {
	out := make(Context, len(c))
	for k, v := range c {
		if nested, ok := v.(map[string]interface{}); ok {
			inner := make(map[string]interface{}, len(nested))
			for nk, nv := range nested {
				inner[nk] = nv
			}
			v = inner
		}
		out[k] = v
	}
	return out
}

// Has reports whether name is bound
func (c Context) Has(name string) bool {
	_, ok := c[name]
	return ok
}
