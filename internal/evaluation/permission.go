package evaluation

import "sdagate/pkg/domain"

// ResolvePermission looks up the matrix cell for the exact (category, kind)
// pair. Returns PermissionUnset when the cell was never populated - a normal,
// observable outcome that the legal gate routes to manual analysis, not an
// error. Enum validation happens upstream; inputs here are already parsed.
func ResolvePermission(matrix domain.PermissionMatrix, category domain.EntityCategory, kind domain.RelationshipKind) domain.PermissionCode {
	return matrix.Resolve(category, kind)
}
