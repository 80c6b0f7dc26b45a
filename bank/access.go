package bank

// AccessInfo is a ring and domain pair. It serves as the access key of the
// executing program and as the access lock of a bank.
type AccessInfo struct {
	Ring   uint64 // 0 is the most privileged ring.
	Domain uint64
}

// NewAccessInfo decodes an 18-bit key or lock: ring in the two high bits
// and domain in the low 16 bits.
func NewAccessInfo(value uint64) AccessInfo {
	return AccessInfo{
		Ring:   (value >> 16) & 03,
		Domain: value & 0177777,
	}
}

// Value encodes the access info as an 18-bit field.
func (ai AccessInfo) Value() uint64 {
	return (ai.Ring&03)<<16 | (ai.Domain & 0177777)
}

// Permissions is one of the two permission sets of a bank.
type Permissions struct {
	Enter bool
	Read  bool
	Write bool
}

// NewPermissions decodes a three bit E/R/W field.
func NewPermissions(bits uint64) Permissions {
	return Permissions{
		Enter: bits&04 != 0,
		Read:  bits&02 != 0,
		Write: bits&01 != 0,
	}
}

// Bits encodes the permissions as a three bit E/R/W field.
func (p Permissions) Bits() (bits uint64) {
	if p.Enter {
		bits |= 04
	}
	if p.Read {
		bits |= 02
	}
	if p.Write {
		bits |= 01
	}
	return
}

// UseSpecial selects the special access permissions when key is more
// privileged than lock, or belongs to the same domain.
func UseSpecial(key, lock AccessInfo) bool {
	return key.Ring < lock.Ring || key.Domain == lock.Domain
}

// Effective returns the permission set that governs access by key.
func Effective(key, lock AccessInfo, gap, sap Permissions) Permissions {
	if UseSpecial(key, lock) {
		return sap
	}
	return gap
}

// Access is a requested kind of storage reference.
type Access int

const (
	ACCESS_NONE  = Access(0)
	ACCESS_READ  = Access(1 << 0)
	ACCESS_WRITE = Access(1 << 1)
	ACCESS_ENTER = Access(1 << 2)
	ACCESS_RW    = ACCESS_READ | ACCESS_WRITE
)
