package nature

import "github.com/mvp-joe/typelink/internal/errors"

// IsEnumFlat reports whether every variant of the Enum n carries no
// associated values. Flat enums serialize as plain strings; the rest need a
// tagged encoding.
func IsEnumFlat(n Nature) (bool, error) {
	e, ok := n.(*Enum)
	if !ok {
		return false, parsingf("Given Nature isn't enum: %s", describe(n))
	}
	return isFlatVariants(e.variants)
}

func isFlatVariants(variants []Nature) (bool, error) {
	for _, v := range variants {
		ev, ok := v.(*EnumVariant)
		if !ok {
			return false, parsingf("Given Nature isn't enum variant: %s", describe(v))
		}
		if len(ev.values) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// ResolveFlatness computes the flatness of every registered Enum and stores
// it on each of its variants.
func ResolveFlatness(natures *Natures) error {
	for _, entry := range natures.entries {
		e, ok := entry.Nature.(*Enum)
		if !ok {
			continue
		}
		flat, err := isFlatVariants(e.variants)
		if err != nil {
			return errors.Wrapf(err, "enum %s", entry.Name)
		}
		for _, v := range e.variants {
			v.(*EnumVariant).flat = flat
		}
	}
	return nil
}

// IsEnum is a Filter predicate.
func IsEnum(n Nature) bool {
	_, ok := n.(*Enum)
	return ok
}

// IsStruct is a Filter predicate.
func IsStruct(n Nature) bool {
	_, ok := n.(*Struct)
	return ok
}

// IsNamedFunc is a Filter predicate.
func IsNamedFunc(n Nature) bool {
	_, ok := n.(*NamedFunc)
	return ok
}

// IsFlatEnum is a Filter predicate matching enums whose variants are all
// value-less.
func IsFlatEnum(n Nature) bool {
	flat, err := IsEnumFlat(n)
	return err == nil && flat
}

func describe(n Nature) string {
	if n == nil {
		return "nil"
	}
	return n.String()
}
