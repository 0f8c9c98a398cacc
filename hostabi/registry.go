// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hostabi implements the guest-callable host module surface: a
// name-indexed table of field-arithmetic entry points that the opcode
// interpreter dispatches `call` against imported functions into. Modules
// register themselves by name at init time, mirroring the teacher's
// precompile-registration idiom generalized from "address -> contract"
// to "module name -> function table".
package hostabi

import "github.com/ligetron/zkvm/vm"

var registered = map[string]vm.HostModule{}

// Register adds a host module under name. Called from each module's
// init(); a duplicate name is a build-time wiring mistake, not a
// recoverable runtime condition, so it panics immediately.
func Register(name string, mod vm.HostModule) {
	if _, exists := registered[name]; exists {
		panic("hostabi: module already registered: " + name)
	}
	registered[name] = mod
}

// Lookup returns the host module registered under name, if any.
func Lookup(name string) (vm.HostModule, bool) {
	mod, ok := registered[name]
	return mod, ok
}

// All returns every registered host module keyed by name, suitable for
// passing straight into vm.NewInterpreter's hosts map.
func All() map[string]vm.HostModule {
	out := make(map[string]vm.HostModule, len(registered))
	for k, v := range registered {
		out[k] = v
	}
	return out
}
