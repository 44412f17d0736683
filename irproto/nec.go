package irproto

// NEC frames shift out 32 bits LSB-first: address low byte, address high
// byte, command, inverted command. Original 8-bit addressing sends the
// inverse of the address low byte as the high byte; extended NEC reuses that
// field for the upper address half and keeps only the command check.

// SplitRawNECData breaks a raw 32-bit NEC code into address and command,
// validating the command against its inverse.
func SplitRawNECData(raw uint32) (valid bool, address uint16, command byte) {
	addrLow := byte(raw)
	addrHigh := byte(raw >> 8)
	command = byte(raw >> 16)
	invCommand := byte(raw >> 24)
	address = MakeNECAddress(addrLow, addrHigh)
	valid = command == ^invCommand
	return valid, address, command
}

// MakeRawNECData assembles the raw 32-bit code for an address and command.
func MakeRawNECData(address uint16, command byte) uint32 {
	addrLow, addrHigh := SplitNECAddress(address)
	return uint32(addrLow) |
		uint32(addrHigh)<<8 |
		uint32(command)<<16 |
		uint32(^command)<<24
}

// SplitNECAddress yields the two on-wire address bytes. Addresses in the
// 8-bit range get the inverse of the low byte as the high byte.
func SplitNECAddress(address uint16) (addrLow, addrHigh byte) {
	addrLow = byte(address)
	addrHigh = byte(address >> 8)
	if addrHigh == 0 {
		addrHigh = ^addrLow
	}
	return addrLow, addrHigh
}

// MakeNECAddress reconstructs the logical address from the on-wire bytes.
// A high byte that is exactly the inverse of the low byte cannot be an
// extended address, so it collapses back to the 8-bit form.
func MakeNECAddress(addrLow, addrHigh byte) uint16 {
	if addrHigh == ^addrLow {
		return uint16(addrLow)
	}
	return uint16(addrHigh)<<8 | uint16(addrLow)
}
