package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// Script runs a user Lua file that defines
//
//	function continue(text, opts) ... end
//
// returning the continuation, or nil and an error message. opts holds
// model, temperature, max_tokens and instructions. Scripts run with the
// base, table, string and math libraries only.
type Script struct {
	path string
}

// NewScript creates a provider for the Lua file at path.
func NewScript(path string) *Script {
	return &Script{path: path}
}

// Name implements Provider.
func (p *Script) Name() string { return "script" }

// Generate implements Provider. Every call runs in a fresh Lua state.
func (p *Script) Generate(ctx context.Context, req Request) (text string, err error) {
	if p.path == "" {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("no script configured")}
	}
	src, err := os.ReadFile(p.path)
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}

	L := newScriptState()
	defer L.Close()
	L.SetContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = &Error{Provider: p.Name(), Err: fmt.Errorf("lua panic: %v", r)}
		}
	}()

	if err := L.DoString(string(src)); err != nil {
		return "", wrapErr(p.Name(), err)
	}
	fn := L.GetGlobal("continue")
	if fn.Type() != lua.LTFunction {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("%s does not define function continue", p.path)}
	}

	opts := L.NewTable()
	opts.RawSetString("model", lua.LString(req.Options.Model))
	opts.RawSetString("temperature", lua.LNumber(req.Options.Temperature))
	opts.RawSetString("max_tokens", lua.LNumber(req.Options.MaxTokens))
	if req.Options.InstructionsEnabled {
		opts.RawSetString("instructions", lua.LString(req.Options.Instructions))
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, lua.LString(req.ExistingText), opts); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", wrapErr(p.Name(), err)
	}
	ret, errVal := L.Get(-2), L.Get(-1)
	L.Pop(2)
	if errVal != lua.LNil {
		return "", &Error{Provider: p.Name(), Err: errors.New(errVal.String())}
	}
	if ret.Type() != lua.LTString {
		return "", &Error{Provider: p.Name(), Err: ErrEmptyCompletion}
	}
	return completion(p.Name(), ret.String())
}

// newScriptState opens the safe standard libraries and removes the
// functions that load code from disk.
func newScriptState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
