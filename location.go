package nsdux

// StateLocation tells a Namespace which part of its state a mounted
// component reduces.
//
// A Scoped location routes the value stored under one key. An Unscoped
// location routes the whole Namespace state, so the component can read and
// replace its siblings' state. The zero value is Unscoped.
type StateLocation struct {
	key    string
	scoped bool
}

// Scoped returns a location that routes state[key] to the component.
func Scoped(key string) StateLocation {
	return StateLocation{key: key, scoped: true}
}

// Unscoped returns a location that routes the whole Namespace state.
func Unscoped() StateLocation {
	return StateLocation{}
}

// Key returns the routed key and whether the location is scoped.
func (l StateLocation) Key() (string, bool) {
	return l.key, l.scoped
}

// IsScoped reports whether the location routes a single key.
func (l StateLocation) IsScoped() bool {
	return l.scoped
}

func (l StateLocation) String() string {
	if !l.scoped {
		return "*"
	}
	return l.key
}
