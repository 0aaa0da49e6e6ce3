package record

// Similar reports whether cand is structurally related to ref: same owner
// and same category, plus at least one of same field, same outcome quality,
// or an overlapping tag. The reference itself never matches.
func Similar(ref, cand *Record) bool {
	if cand.id == ref.id {
		return false
	}
	if cand.ownerID != ref.ownerID {
		return false
	}
	if cand.category != ref.category {
		return false
	}
	if ref.fieldID != "" && cand.fieldID == ref.fieldID {
		return true
	}
	if cand.outcome.Quality == ref.outcome.Quality {
		return true
	}
	for _, t := range ref.tags {
		// The category tag is shared by construction; it must not count
		// as overlap or every same-category record would qualify.
		if t == string(ref.category) {
			continue
		}
		if cand.HasTag(t) {
			return true
		}
	}
	return false
}

// OverlapTags returns the reference tags eligible for similarity overlap,
// excluding the category tag.
func (r *Record) OverlapTags() []string {
	out := make([]string, 0, len(r.tags))
	for _, t := range r.tags {
		if t == string(r.category) {
			continue
		}
		out = append(out, t)
	}
	return out
}
