package ipbauth

// GroupChanges lists the host group memberships to grant and revoke
type GroupChanges struct {
	Add    []string
	Remove []string
}

func (c GroupChanges) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// ReconcileGroups compares the forum groups of a member with the host groups
// the user currently holds. For every mapped host group the membership must
// end up held exactly when one of its forum ids is in external. Host groups
// outside mapping are never touched.
func ReconcileGroups(external GroupIDs, mapping GroupMap, current []string) GroupChanges {
	externalSet := make(map[int64]struct{}, len(external))
	for _, id := range external {
		externalSet[id] = struct{}{}
	}

	currentSet := make(map[string]struct{}, len(current))
	for _, group := range current {
		currentSet[group] = struct{}{}
	}

	var changes GroupChanges
	for _, group := range mapping.Groups() {
		granted := false
		for _, id := range mapping[group] {
			if _, ok := externalSet[id]; ok {
				granted = true
				break
			}
		}

		_, held := currentSet[group]
		switch {
		case granted && !held:
			changes.Add = append(changes.Add, group)
		case !granted && held:
			changes.Remove = append(changes.Remove, group)
		}
	}

	return changes
}
