// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

// StateText is the state and description of a vendor status code.
type StateText struct {
	State State
	Text  string
}

// StateMap maps vendor status codes to states.
type StateMap map[string]StateText

// Lookup returns the state and text of code. Unknown codes map to UNKNOWN "unknown[<code>]".
func (m StateMap) Lookup(code string) (State, string) {
	if st, ok := m[code]; ok {
		return st.State, st.Text
	}
	return Unknown, "unknown[" + code + "]"
}

// Result returns the looked up state as a Result with summary "<label>: <text>".
func (m StateMap) Result(label, code string) Result {
	state, text := m.Lookup(code)
	if label != "" {
		text = label + ": " + text
	}
	return Result{State: state, Summary: text}
}
