package domain

// PermissionCode governs whether a service may be offered at all for one
// matrix cell. The wire values ("1", "2", "NO") come from the regulatory
// source material and are preserved verbatim.
type PermissionCode string

const (
	// PermissionAllowed means the service may proceed to threat analysis.
	PermissionAllowed PermissionCode = "1"

	// PermissionLimited means the service is permitted only with conditions.
	PermissionLimited PermissionCode = "2"

	// PermissionProhibited blocks the service outright.
	PermissionProhibited PermissionCode = "NO"

	// PermissionUnset marks a matrix cell that was never populated. Distinct
	// from PermissionProhibited: it routes to manual analysis, not a block.
	PermissionUnset PermissionCode = ""
)

// MatrixKey addresses one cell of a service's permission matrix by the exact
// (category, kind) pair. No partial matches, no inheritance between cells.
type MatrixKey struct {
	Category EntityCategory
	Kind     RelationshipKind
}

// PermissionMatrix is the six-cell lookup each service carries. Missing keys
// read as PermissionUnset.
type PermissionMatrix map[MatrixKey]PermissionCode

// Resolve returns the permission code for the given pair, or PermissionUnset
// when the cell was never populated. Input validation happens upstream; this
// is a pure lookup.
func (m PermissionMatrix) Resolve(category EntityCategory, kind RelationshipKind) PermissionCode {
	return m[MatrixKey{Category: category, Kind: kind}]
}

// Cells enumerates every valid matrix key in a stable order, for storage
// layers that flatten the matrix into columns or rows.
func Cells() []MatrixKey {
	return []MatrixKey{
		{EntityEIP, RelationshipAudited},
		{EntityEIP, RelationshipChain},
		{EntityEIP, RelationshipAffiliated},
		{EntityNoEIP, RelationshipAudited},
		{EntityNoEIP, RelationshipChain},
		{EntityNoEIP, RelationshipAffiliated},
	}
}
