// Package justicarerrors tracks the error-code allocation across every
// justicar package so that cosmossdk.io/errors registrations never collide.
package justicarerrors

// ModuleCodeRange describes the error code range reserved for one package.
type ModuleCodeRange struct {
	Module      string
	StartCode   uint32
	EndCode     uint32
	Description string
}

// AllModuleRanges lists every allocated range. Add a new package here before
// registering its first error code.
var AllModuleRanges = []ModuleCodeRange{
	{Module: "handover", StartCode: 1, EndCode: 99, Description: "handover protocol core"},
	{Module: "attestation", StartCode: 100, EndCode: 199, Description: "remote attestation adapters"},
	{Module: "localreport", StartCode: 200, EndCode: 299, Description: "local attestation bridge"},
	{Module: "registry", StartCode: 300, EndCode: 399, Description: "enclave measurement registry client"},
	{Module: "keystore", StartCode: 400, EndCode: 499, Description: "handed-over key persistence"},
}

// GetModuleRange returns the allocated range for a module, if any.
func GetModuleRange(module string) (ModuleCodeRange, bool) {
	for _, r := range AllModuleRanges {
		if r.Module == module {
			return r, true
		}
	}
	return ModuleCodeRange{}, false
}

// ValidateCode reports whether code falls within module's allocated range.
func ValidateCode(module string, code uint32) bool {
	r, ok := GetModuleRange(module)
	if !ok {
		return false
	}
	return code >= r.StartCode && code <= r.EndCode
}
