// Package hook provides pre/post dispatch hooks for the dispatcher.
//
// Hooks intercept action dispatch for logging, validation and follow-up
// work such as returning focus to the editor. They implement Name and
// Priority and one or both of:
//
//   - PreDispatchHook: called before dispatch; returning false cancels it.
//   - PostDispatchHook: called after dispatch; may inspect the result.
//
// Pre-hooks run from highest to lowest priority. Post-hooks run from
// lowest to highest, so high priority hooks see the final result.
//
// Built-in hooks:
//
//	AuditHook       logs every dispatch and its status
//	FocusHook       returns focus to the editor when a result asks for it
//	ModalGuardHook  cancels keyboard actions while a modal is open
//	TimingHook      reports dispatch durations
//	ActionFilterHook cancels actions a predicate rejects
package hook
