package value

// Field is one key/value entry of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a string-keyed mapping that remembers insertion order. Keys are
// unique: Set replaces the value of an existing key in place.
type Object []Field

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of fields.
func (o Object) Len() int {
	return len(o)
}

// Set stores val under key, appending the key if it is new.
func (o *Object) Set(key string, val any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = val
			return
		}
	}
	*o = append(*o, Field{Key: key, Value: val})
}
