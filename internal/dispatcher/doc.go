// Package dispatcher routes editor actions to handlers.
//
// Actions come from the keymap, the toolbar or the command line. The
// dispatcher finds a handler for each one in two tiers:
//
//  1. Router: namespace handlers keyed by the segment before the first
//     dot. "format.toggleMark.em" goes to the "format" handler.
//  2. Registry: handlers keyed by exact action name, ordered by priority.
//
// # Execution
//
// For each dispatch the dispatcher builds an execctx.ExecutionContext
// holding the document, the formatting controller, the continuation
// orchestrator, the focus target and the current generation options.
// Pre-dispatch hooks may cancel the action. The handler runs, with panic
// recovery unless disabled. Post-dispatch hooks see the result, and
// metrics are recorded.
//
// # Usage
//
//	d := dispatcher.NewWithDefaults()
//	d.SetDocument(model)
//	d.SetFormatter(format.New(model))
//	d.SetContinuation(orchestrator)
//	d.RegisterNamespace(formathandler.New())
//	d.HookManager().Register(hook.NewFocusHook())
//
//	result := d.Dispatch(input.NewAction("format.toggleMark.strong", input.SourceToolbar))
//
// Handlers live in the handlers subpackages: format, history and ai.
package dispatcher
