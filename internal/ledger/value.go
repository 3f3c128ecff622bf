package ledger

// EffectiveValueSQL is the contribution of one ledger row to a total. It
// expects extra_points aliased as ep and extra_points_type as ept.
// It must agree with EffectiveValue.
const EffectiveValueSQL = "COALESCE(ep.ext_type_value, ept.ext_type_value, 0)"

// EffectiveValue returns what an entry contributes to its student's total:
// the override when set, otherwise the catalog value, otherwise zero.
func EffectiveValue(override, catalog *int64) int64 {
	if override != nil {
		return *override
	}
	if catalog != nil {
		return *catalog
	}
	return 0
}
