package irproto

// Protocol identifiers reported in decoded frames. Zero is reserved for
// "no protocol" so that a zero-valued frame stays distinguishable.
const (
	ProtocolNone uint32 = iota
	ProtocolNEC
	ProtocolSamsung32
	ProtocolJVC
)

// protocolNames is a static table; entries are never freed or mutated, so
// returned names stay valid for the lifetime of the process.
var protocolNames = [...]string{
	ProtocolNone:      "none",
	ProtocolNEC:       "NEC",
	ProtocolSamsung32: "Samsung32",
	ProtocolJVC:       "JVC-16",
}

// ProtocolName resolves a protocol id to its display name. Ids outside the
// known range yield the literal "unknown".
func ProtocolName(id uint32) string {
	if id >= uint32(len(protocolNames)) {
		return "unknown"
	}
	return protocolNames[id]
}

// NumProtocols is the count of known protocol ids, including ProtocolNone.
const NumProtocols = uint32(len(protocolNames))
