//go:build !js_eval

package tagloader

// NewJSEngine is unavailable without the js_eval build tag.
func NewJSEngine() RuleEngine {
	return nil
}

func jsEngineAvailable() bool {
	return false
}
