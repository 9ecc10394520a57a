package flux

import "sort"

// Changes computes which freshly fetched entities are new or changed relative
// to the snapshot, then overwrites the snapshot with every fresh value.
//
// An entity is changed when its id is absent from the snapshot or stored with
// a different value. Entities present in the snapshot but absent from the
// fetch are never reported as removed: the absence may be a partial or
// paginated fetch, and the engine never synthesizes deletions from polling
// gaps.
//
// The changed slice is sorted by ascending id so a cycle's output is
// deterministic. When the fetch contains the same id twice with conflicting
// values, the later occurrence is dropped and returned in conflicting for the
// caller to report.
func Changes[T Value[T]](snapshot *Snapshot[T], fresh []T) (changed, conflicting []T) {
	seen := make(map[string]T, len(fresh))

	for _, v := range fresh {
		id := v.UID()
		if prior, ok := seen[id]; ok {
			if !prior.Equal(v) {
				conflicting = append(conflicting, v)
			}
			continue
		}
		seen[id] = v

		if stored, ok := snapshot.Get(id); !ok || !stored.Equal(v) {
			changed = append(changed, v)
		}
		snapshot.put(v)
	}

	sort.Slice(changed, func(i, j int) bool {
		return changed[i].UID() < changed[j].UID()
	})
	return changed, conflicting
}
