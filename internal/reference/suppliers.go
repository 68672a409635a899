package reference

import "github.com/stwalsh4118/rackplan/internal/models"

// SupplierRole decides which supplier a BOM category is bought from.
type SupplierRole string

const (
	RoleRack    SupplierRole = "rack"
	RoleAnchor  SupplierRole = "anchor"
	RoleDecking SupplierRole = "decking"
)

var supplierRoles = map[models.Category]SupplierRole{
	models.CategoryFrame:         RoleRack,
	models.CategoryBeam:          RoleRack,
	models.CategoryRowSpacer:     RoleRack,
	models.CategoryShim:          RoleRack,
	models.CategoryHardware:      RoleRack,
	models.CategoryPalletSupport: RoleRack,
	models.CategoryColumnProtect: RoleRack,
	models.CategoryFillerAngle:   RoleRack,
	models.CategoryOtherManual:   RoleRack,
	models.CategoryAnchor:        RoleAnchor,
	models.CategoryGuardAnchor:   RoleAnchor,
	models.CategoryWiredeck:      RoleDecking,
	models.CategoryEoAGuard:      RoleDecking,
}

// RoleFor returns the supplier role for a category.
func RoleFor(c models.Category) SupplierRole {
	if r, ok := supplierRoles[c]; ok {
		return r
	}
	return RoleRack
}

// Suppliers names the supplier for each role on a project.
type Suppliers struct {
	Rack    string `json:"rack_manufacturer"`
	Anchor  string `json:"anchor_supplier"`
	Decking string `json:"decking_supplier"`
}

// Default supplier names.
const (
	DefaultRackManufacturer = "Mecalux"
	DefaultAnchorSupplier   = "Hilti"
	DefaultDeckingSupplier  = "WWMH"
)

// DefaultSuppliers returns the house supplier assignment.
func DefaultSuppliers() Suppliers {
	return Suppliers{
		Rack:    DefaultRackManufacturer,
		Anchor:  DefaultAnchorSupplier,
		Decking: DefaultDeckingSupplier,
	}
}

// Merge fills empty fields of s from base.
func (s Suppliers) Merge(base Suppliers) Suppliers {
	if s.Rack == "" {
		s.Rack = base.Rack
	}
	if s.Anchor == "" {
		s.Anchor = base.Anchor
	}
	if s.Decking == "" {
		s.Decking = base.Decking
	}
	return s
}

// For returns the supplier for a category.
func (s Suppliers) For(c models.Category) string {
	switch RoleFor(c) {
	case RoleAnchor:
		return s.Anchor
	case RoleDecking:
		return s.Decking
	default:
		return s.Rack
	}
}

// Ordered lists the distinct supplier names in rack, anchor, decking order.
func (s Suppliers) Ordered() []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range []string{s.Rack, s.Anchor, s.Decking} {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
