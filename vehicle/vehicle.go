// Package vehicle provides the vehicle taxonomy used by the trip emissions form.
package vehicle

import "strings"

// Category represents the top-level vehicle kind.
type Category string

const (
	CategoryCar        Category = "car"
	CategoryMotorcycle Category = "motorcycle"
	CategoryBus        Category = "bus"
)

// AllCategories returns all valid vehicle categories in form order.
func AllCategories() []Category {
	return []Category{
		CategoryCar,
		CategoryMotorcycle,
		CategoryBus,
	}
}

// ParseCategory normalizes raw form input into a Category.
// The returned value is only meaningful when IsValid reports true.
func ParseCategory(s string) Category {
	return Category(strings.ToLower(strings.TrimSpace(s)))
}

// IsValid checks if the category is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategoryCar, CategoryMotorcycle, CategoryBus:
		return true
	}
	return false
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// HasOccupancy reports whether the number of occupants applies to the category.
func (c Category) HasOccupancy() bool {
	_, ok := occupancyLimits[c]
	return ok
}

// OccupancyLimit returns the maximum number of occupants for the category.
// The second value is false for categories without an occupancy field.
func (c Category) OccupancyLimit() (int, bool) {
	limit, ok := occupancyLimits[c]
	return limit, ok
}

// Subtype is the sub-classification within a category that governs fuel policy.
type Subtype string

const (
	SubtypeStandard     Subtype = "standard"
	SubtypeFlex         Subtype = "flex"
	SubtypeMicroBus     Subtype = "micro-bus"
	SubtypeMunicipalBus Subtype = "municipal-bus"
	SubtypeTravelBus    Subtype = "travel-bus"
)

// ParseSubtype normalizes raw form input into a Subtype.
// Spaces become dashes, so "Municipal Bus" and "municipal-bus" are the same subtype.
func ParseSubtype(s string) Subtype {
	s = strings.ToLower(strings.TrimSpace(s))
	return Subtype(strings.Join(strings.Fields(s), "-"))
}

// String returns the string representation of the subtype.
func (s Subtype) String() string {
	return string(s)
}

// Key identifies a (category, subtype) pair.
type Key struct {
	Category Category
	Subtype  Subtype
}

// String returns the "category-subtype" form used for storage and labels.
func (k Key) String() string {
	return string(k.Category) + "-" + string(k.Subtype)
}

// IsValid checks that the subtype belongs to the category.
func (k Key) IsValid() bool {
	_, ok := fuelPolicies[k]
	return ok
}

// ParseKey parses the "category-subtype" form produced by Key.String.
func ParseKey(s string) (Key, bool) {
	category, subtype, found := strings.Cut(s, "-")
	if !found {
		return Key{}, false
	}
	k := Key{Category: Category(category), Subtype: Subtype(subtype)}
	return k, k.IsValid()
}

// AllKeys returns every valid (category, subtype) pair in form order.
func AllKeys() []Key {
	keys := make([]Key, 0, len(fuelPolicies))
	for _, c := range AllCategories() {
		for _, s := range subtypes[c] {
			keys = append(keys, Key{Category: c, Subtype: s})
		}
	}
	return keys
}

var subtypes = map[Category][]Subtype{
	CategoryCar:        {SubtypeStandard, SubtypeFlex},
	CategoryMotorcycle: {SubtypeStandard, SubtypeFlex},
	CategoryBus:        {SubtypeMicroBus, SubtypeMunicipalBus, SubtypeTravelBus},
}

var occupancyLimits = map[Category]int{
	CategoryCar:        5,
	CategoryMotorcycle: 2,
}

// SubtypesFor returns the ordered subtypes allowed for a category.
func SubtypesFor(c Category) ([]Subtype, error) {
	list, ok := subtypes[c]
	if !ok {
		return nil, &LookupError{Category: c, Err: ErrUnknownCategory}
	}
	out := make([]Subtype, len(list))
	copy(out, list)
	return out, nil
}

// OccupancyLimit returns the maximum number of occupants for a category.
func OccupancyLimit(c Category) (int, bool) {
	return c.OccupancyLimit()
}
