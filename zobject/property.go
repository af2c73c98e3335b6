package zobject

import "zmrun/zcore"

// Property is a decoded property-table entry: its id, data length, and the
// address of its data bytes. Grounded on the teacher's
// zobject/property.go:Property.
type Property struct {
	Id                   uint8
	Length               uint8
	PropertyHeaderLength uint8
	Address              uint32
	DataAddress          uint32
}

// Data reads the property's data bytes from mem.
func (p *Property) Data(mem *zcore.Memory) ([]uint8, error) {
	return mem.ReadSlice(p.DataAddress, uint32(p.Length))
}

// propertyByAddress decodes the size byte(s) at propertyAddr into a
// Property, following the version-dependent encoding in
// spec.md 4.3/4.6: v1-3 packs length-1 into the top 3 bits of a single size
// byte; v4+ either uses bit 6 of a single byte to pick length 1 or 2 (top
// bit clear) or a second byte carrying a 6-bit length (top bit set, 0 meaning
// 64). Grounded on the teacher's zobject/property.go:GetPropertyByAddress.
func propertyByAddress(mem *zcore.Memory, propertyAddr uint32, version uint8) (Property, error) {
	sizeByte, err := mem.ReadByte(propertyAddr)
	if err != nil {
		return Property{}, err
	}

	length := (sizeByte >> 5) + 1
	id := sizeByte & 0b1_1111
	headerLength := uint8(1)

	if version >= 4 {
		if sizeByte>>7 == 1 {
			secondByte, err := mem.ReadByte(propertyAddr + 1)
			if err != nil {
				return Property{}, err
			}
			length = secondByte & 0b11_1111
			if length == 0 {
				length = 64
			}
			id = sizeByte & 0b11_1111
			headerLength = 2
		} else {
			length = ((sizeByte >> 6) & 1) + 1
			id = sizeByte & 0b11_1111
		}
	}

	dataAddress := propertyAddr + uint32(headerLength)
	return Property{
		Id:                   id,
		Length:               length,
		PropertyHeaderLength: headerLength,
		Address:              propertyAddr,
		DataAddress:          dataAddress,
	}, nil
}

// PropertyLengthAtDataAddress implements get_prop_len, which receives a
// property *data* address (as returned by get_prop_addr) rather than an
// object/property pair, and must recover the length from the byte(s)
// immediately preceding it rather than walking the property table from its
// start.
func PropertyLengthAtDataAddress(mem *zcore.Memory, dataAddress uint32) (uint8, error) {
	precedingByte, err := mem.ReadByte(dataAddress - 1)
	if err != nil {
		return 0, err
	}

	if mem.Header.Version <= 3 {
		return (precedingByte >> 5) + 1, nil
	}

	if precedingByte>>7 == 1 {
		length := precedingByte & 0b11_1111
		if length == 0 {
			length = 64
		}
		return length, nil
	}
	return ((precedingByte >> 6) & 1) + 1, nil
}

func (o *Object) firstPropertyAddress(mem *zcore.Memory) (uint32, error) {
	nameLength, err := mem.ReadByte(uint32(o.PropertyPointer))
	if err != nil {
		return 0, err
	}
	return uint32(o.PropertyPointer) + 1 + uint32(nameLength)*2, nil
}

// GetProperty walks objId's property table looking for propertyId. If the
// object has no override it returns a Property with Length 0;
// GetPropertyValue is the caller that falls back to the default table.
func (o *Object) GetProperty(mem *zcore.Memory, propertyId uint8) (Property, error) {
	currentPtr, err := o.firstPropertyAddress(mem)
	if err != nil {
		return Property{}, err
	}

	for {
		sizeByte, err := mem.ReadByte(currentPtr)
		if err != nil {
			return Property{}, err
		}
		if sizeByte == 0 {
			break
		}

		prop, err := propertyByAddress(mem, currentPtr, mem.Header.Version)
		if err != nil {
			return Property{}, err
		}
		if prop.Id == propertyId {
			return prop, nil
		}
		if prop.Id < propertyId {
			// Properties are stored in descending id order; once we've
			// passed propertyId it cannot appear later.
			break
		}

		currentPtr = prop.DataAddress + uint32(prop.Length)
	}

	return Property{Id: propertyId, Length: 0}, nil
}

// GetPropertyAddress returns the data address of propertyId on objId, or 0
// if the object has no override for it (get_prop_addr).
func (o *Object) GetPropertyAddress(mem *zcore.Memory, propertyId uint8) (uint32, error) {
	prop, err := o.GetProperty(mem, propertyId)
	if err != nil {
		return 0, err
	}
	if prop.Length == 0 {
		return 0, nil
	}
	return prop.DataAddress, nil
}

// GetPropertyValue returns propertyId's value as a word: the 1 or 2 byte
// override if the object has one, else the default property table entry.
func (o *Object) GetPropertyValue(mem *zcore.Memory, propertyId uint8) (uint16, error) {
	prop, err := o.GetProperty(mem, propertyId)
	if err != nil {
		return 0, err
	}
	if prop.Length == 0 {
		return DefaultProperty(mem, propertyId)
	}

	data, err := prop.Data(mem)
	if err != nil {
		return 0, err
	}
	switch prop.Length {
	case 1:
		return uint16(data[0]), nil
	default:
		// A property longer than 2 bytes has no single "value" - get_prop
		// is only well-defined for 1/2-byte properties. The Standard's
		// reading (spec.md 4.3/7) has get_prop tolerate this and return the
		// first word rather than abort; the caller is responsible for
		// warning, since that's a host-visible concern this package doesn't
		// have a channel for.
		return uint16(data[0])<<8 | uint16(data[1]), nil
	}
}

// SetProperty writes value into objId's existing property override, per
// spec.md 4.3/4.6's put_prop semantics. Unlike get_prop, put_prop on a
// property the object doesn't have is an error: there is no default to
// write through.
func (o *Object) SetProperty(mem *zcore.Memory, propertyId uint8, value uint16) error {
	prop, err := o.GetProperty(mem, propertyId)
	if err != nil {
		return err
	}
	if prop.Length == 0 {
		return &PropertyError{ObjectId: o.Id, PropertyId: propertyId, Reason: "put_prop on a property the object does not have"}
	}

	switch prop.Length {
	case 1:
		return mem.WriteByte(prop.DataAddress, uint8(value))
	case 2:
		return mem.WriteWord(prop.DataAddress, value)
	default:
		return &PropertyError{ObjectId: o.Id, PropertyId: propertyId, Reason: "put_prop on a property longer than 2 bytes"}
	}
}

// GetNextProperty implements get_next_prop: propertyId 0 means "first
// property"; otherwise it returns the id of the property stored after
// propertyId, or 0 if propertyId was the last.
func (o *Object) GetNextProperty(mem *zcore.Memory, propertyId uint8) (uint8, error) {
	if propertyId == 0 {
		first, err := o.firstPropertyAddress(mem)
		if err != nil {
			return 0, err
		}
		sizeByte, err := mem.ReadByte(first)
		if err != nil {
			return 0, err
		}
		if sizeByte == 0 {
			return 0, nil
		}
		prop, err := propertyByAddress(mem, first, mem.Header.Version)
		if err != nil {
			return 0, err
		}
		return prop.Id, nil
	}

	prop, err := o.GetProperty(mem, propertyId)
	if err != nil {
		return 0, err
	}
	if prop.Length == 0 {
		return 0, &PropertyError{ObjectId: o.Id, PropertyId: propertyId, Reason: "get_next_prop on a property the object does not have"}
	}

	nextAddr := prop.DataAddress + uint32(prop.Length)
	sizeByte, err := mem.ReadByte(nextAddr)
	if err != nil {
		return 0, err
	}
	if sizeByte == 0 {
		return 0, nil
	}
	next, err := propertyByAddress(mem, nextAddr, mem.Header.Version)
	if err != nil {
		return 0, err
	}
	return next.Id, nil
}
