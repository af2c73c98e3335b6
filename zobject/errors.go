package zobject

import "fmt"

// ObjectError reports an invalid object id. Load returns it for id zero;
// ids past the end of the object table are not detected. The teacher panics ("Can't get 0th object, it doesn't
// exist"); zmrun returns this instead so a caller (the zmachine executor)
// can turn it into a typed RuntimeError at the instruction boundary.
type ObjectError struct {
	Id uint16
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("invalid object id %d", e.Id)
}

// PropertyError reports a property operation the object's table cannot
// satisfy (put_prop or get_next_prop on a property the object does not
// have, or put_prop on a property longer than 2 bytes).
// Named per spec.md 7's error kind taxonomy.
type PropertyError struct {
	ObjectId   uint16
	PropertyId uint8
	Reason     string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("object %d property %d: %s", e.ObjectId, e.PropertyId, e.Reason)
}
