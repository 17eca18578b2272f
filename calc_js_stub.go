//go:build !js_calc

package loadout

// NewJSCalc is unavailable without the js_calc build tag.
func NewJSCalc(opts ...JSCalcOption) CalcEngine {
	_ = applyJSCalcOptions(opts)
	return nil
}

func jsCalcAvailable() bool {
	return false
}
