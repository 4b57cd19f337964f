package main

// CallIAT emits call [rip+disp32] against the IAT slot reserved for a
// kernel32 import. Every call this compiler ever emits is indirect through
// the IAT — there is no user-defined function and so no direct call.
func (o *Out) CallIAT(importName string) {
	o.Write(0xFF)
	o.Write(modRM(0, 2, 5))
	o.CG.addRIPFixup(o.CG.ImportRVA(importName))
	o.WriteUnsigned(0)
}
