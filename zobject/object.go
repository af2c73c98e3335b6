package zobject

import (
	"zmrun/zcore"
	"zmrun/zstring"
)

// Object is a decoded entry from the object table: attribute flags, tree
// links, and a pointer to its property table. Field layout follows the
// teacher's zobject/object.go:Object, the more complete of the teacher's two
// duplicate object implementations (the other, zmachine/objects.go, is
// dropped - see DESIGN.md).
type Object struct {
	BaseAddress     uint32
	Id              uint16
	Attributes      uint64
	Parent          uint16
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

const (
	v3EntrySize    = 9
	v3DefaultProps = 31
	v4EntrySize    = 14
	v4DefaultProps = 63
)

func entryLayout(version uint8) (entrySize uint32, defaultProps uint32) {
	if version >= 4 {
		return v4EntrySize, v4DefaultProps
	}
	return v3EntrySize, v3DefaultProps
}

// ObjectBase returns the byte address of objId's entry in the object table.
func ObjectBase(mem *zcore.Memory, objId uint16) uint32 {
	entrySize, defaultProps := entryLayout(mem.Header.Version)
	tableStart := uint32(mem.Header.ObjectTableBase) + defaultProps*2
	return tableStart + uint32(objId-1)*entrySize
}

// DefaultProperty reads entry propId (1-based) from the default property
// table, used when an object has no override for that property.
func DefaultProperty(mem *zcore.Memory, propId uint8) (uint16, error) {
	addr := uint32(mem.Header.ObjectTableBase) + uint32(propId-1)*2
	return mem.ReadWord(addr)
}

// Load decodes object entry objId from mem. objId 0 is never a valid
// object (it means "no object" wherever it appears as a parent/sibling/
// child link); the teacher panics on it, zmrun reports ObjectError.
func Load(mem *zcore.Memory, objId uint16) (Object, error) {
	if objId == 0 {
		return Object{}, &ObjectError{Id: objId}
	}

	base := ObjectBase(mem, objId)
	version := mem.Header.Version

	if version >= 4 {
		attrBytes, err := mem.ReadSlice(base, 6)
		if err != nil {
			return Object{}, err
		}
		parent, err := mem.ReadWord(base + 6)
		if err != nil {
			return Object{}, err
		}
		sibling, err := mem.ReadWord(base + 8)
		if err != nil {
			return Object{}, err
		}
		child, err := mem.ReadWord(base + 10)
		if err != nil {
			return Object{}, err
		}
		propPtr, err := mem.ReadWord(base + 12)
		if err != nil {
			return Object{}, err
		}

		attrs := uint64(attrBytes[0])<<40 | uint64(attrBytes[1])<<32 | uint64(attrBytes[2])<<24 |
			uint64(attrBytes[3])<<16 | uint64(attrBytes[4])<<8 | uint64(attrBytes[5])

		return Object{
			BaseAddress:     base,
			Id:              objId,
			Attributes:      attrs << 16,
			Parent:          parent,
			Sibling:         sibling,
			Child:           child,
			PropertyPointer: propPtr,
		}, nil
	}

	attrBytes, err := mem.ReadSlice(base, 4)
	if err != nil {
		return Object{}, err
	}
	parent, err := mem.ReadByte(base + 4)
	if err != nil {
		return Object{}, err
	}
	sibling, err := mem.ReadByte(base + 5)
	if err != nil {
		return Object{}, err
	}
	child, err := mem.ReadByte(base + 6)
	if err != nil {
		return Object{}, err
	}
	propPtr, err := mem.ReadWord(base + 7)
	if err != nil {
		return Object{}, err
	}

	attrs := uint64(attrBytes[0])<<24 | uint64(attrBytes[1])<<16 | uint64(attrBytes[2])<<8 | uint64(attrBytes[3])

	return Object{
		BaseAddress:     base,
		Id:              objId,
		Attributes:      attrs << 32,
		Parent:          uint16(parent),
		Sibling:         uint16(sibling),
		Child:           uint16(child),
		PropertyPointer: propPtr,
	}, nil
}

// Name decodes the short name (a Z-string) at the head of objId's property
// table.
func Name(mem *zcore.Memory, dec *zstring.Decoder, objId uint16) (string, error) {
	o, err := Load(mem, objId)
	if err != nil {
		return "", err
	}
	length, err := mem.ReadByte(uint32(o.PropertyPointer))
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	name, _, err := dec.DecodeString(uint32(o.PropertyPointer) + 1)
	return name, err
}

// TestAttribute reports whether attribute n is set.
func (o *Object) TestAttribute(n uint16) bool {
	mask := uint64(1) << (63 - n)
	return o.Attributes&mask == mask
}

// SetAttribute sets attribute n both on o and in memory.
func (o *Object) SetAttribute(mem *zcore.Memory, n uint16) error {
	mask := uint64(1) << (63 - n)
	o.Attributes |= mask
	return o.writeAttributes(mem)
}

// ClearAttribute clears attribute n both on o and in memory.
func (o *Object) ClearAttribute(mem *zcore.Memory, n uint16) error {
	mask := uint64(1) << (63 - n)
	o.Attributes &^= mask
	return o.writeAttributes(mem)
}

func (o *Object) writeAttributes(mem *zcore.Memory) error {
	version := mem.Header.Version
	if version >= 4 {
		bits := o.Attributes >> 16
		for i := 0; i < 6; i++ {
			if err := mem.WriteByte(o.BaseAddress+uint32(i), uint8(bits>>(40-8*i))); err != nil {
				return err
			}
		}
		return nil
	}
	bits := o.Attributes >> 32
	for i := 0; i < 4; i++ {
		if err := mem.WriteByte(o.BaseAddress+uint32(i), uint8(bits>>(24-8*i))); err != nil {
			return err
		}
	}
	return nil
}

// SetParent updates the parent link on o both in memory and on o itself.
func (o *Object) SetParent(mem *zcore.Memory, parent uint16) error {
	if mem.Header.Version >= 4 {
		if err := mem.WriteWord(o.BaseAddress+6, parent); err != nil {
			return err
		}
	} else {
		if err := mem.WriteByte(o.BaseAddress+4, uint8(parent)); err != nil {
			return err
		}
	}
	o.Parent = parent
	return nil
}

// SetSibling updates the sibling link on o both in memory and on o itself.
func (o *Object) SetSibling(mem *zcore.Memory, sibling uint16) error {
	if mem.Header.Version >= 4 {
		if err := mem.WriteWord(o.BaseAddress+8, sibling); err != nil {
			return err
		}
	} else {
		if err := mem.WriteByte(o.BaseAddress+5, uint8(sibling)); err != nil {
			return err
		}
	}
	o.Sibling = sibling
	return nil
}

// SetChild updates the child link on o both in memory and on o itself.
func (o *Object) SetChild(mem *zcore.Memory, child uint16) error {
	if mem.Header.Version >= 4 {
		if err := mem.WriteWord(o.BaseAddress+10, child); err != nil {
			return err
		}
	} else {
		if err := mem.WriteByte(o.BaseAddress+6, uint8(child)); err != nil {
			return err
		}
	}
	o.Child = child
	return nil
}

// Unlink removes objId from its parent's child/sibling chain, leaving it
// parentless. Generalized from the teacher's ZMachine.RemoveObject, which
// was originally a *ZMachine method reaching back into the executor; here
// it only needs a Memory.
func Unlink(mem *zcore.Memory, objId uint16) error {
	obj, err := Load(mem, objId)
	if err != nil {
		return err
	}
	if obj.Parent == 0 {
		return nil
	}

	parent, err := Load(mem, obj.Parent)
	if err != nil {
		return err
	}

	if parent.Child == objId {
		if err := parent.SetChild(mem, obj.Sibling); err != nil {
			return err
		}
	} else {
		sib, err := Load(mem, parent.Child)
		if err != nil {
			return err
		}
		for sib.Sibling != objId {
			sib, err = Load(mem, sib.Sibling)
			if err != nil {
				return err
			}
		}
		if err := sib.SetSibling(mem, obj.Sibling); err != nil {
			return err
		}
	}

	return obj.SetParent(mem, 0)
}

// Insert detaches objId from wherever it currently sits and makes it the
// first child of destId, per spec.md 4.3's insert_obj semantics.
// Generalized from the teacher's ZMachine.MoveObject.
func Insert(mem *zcore.Memory, objId uint16, destId uint16) error {
	if err := Unlink(mem, objId); err != nil {
		return err
	}

	obj, err := Load(mem, objId)
	if err != nil {
		return err
	}
	dest, err := Load(mem, destId)
	if err != nil {
		return err
	}

	if err := obj.SetSibling(mem, dest.Child); err != nil {
		return err
	}
	if err := obj.SetParent(mem, destId); err != nil {
		return err
	}
	return dest.SetChild(mem, objId)
}

// Count scans the object table to find how many objects a story defines.
// The format has no explicit count field; the usual trick is that the
// object entries and the property tables they point into share the same
// region, so the lowest property-table address seen bounds how many
// entries can exist. No teacher grounding (the teacher hardcodes object
// counts in its tests); implemented fresh per spec.md 4.3.
func Count(mem *zcore.Memory) (uint16, error) {
	entrySize, defaultProps := entryLayout(mem.Header.Version)
	tableStart := uint32(mem.Header.ObjectTableBase) + defaultProps*2
	minPropAddr := mem.Len()

	var count uint16
	for id := uint16(1); ; id++ {
		entryBase := tableStart + uint32(id-1)*entrySize
		if entryBase+entrySize > minPropAddr {
			break
		}

		var propPtr uint16
		var err error
		if mem.Header.Version >= 4 {
			propPtr, err = mem.ReadWord(entryBase + 12)
		} else {
			propPtr, err = mem.ReadWord(entryBase + 7)
		}
		if err != nil {
			return 0, err
		}

		if uint32(propPtr) < minPropAddr {
			minPropAddr = uint32(propPtr)
		}
		count = id
	}

	return count, nil
}
