package roblox

var badgeTable = map[int64]string{
	1:  "Administrator",
	2:  "Friendship",
	3:  "Combat Initiation",
	4:  "Warrior",
	5:  "Bloxxer",
	6:  "Homestead",
	7:  "Bricksmith",
	8:  "Inviter",
	12: "Veteran",
	14: "Ambassador",
	17: "Official Model Maker",
	18: "Welcome To The Club",
}

// badgeLabels maps ids through badgeTable keeping first-seen order,
// unknown and repeated ids are dropped.
func badgeLabels(ids []int64) []string {
	labels := []string{}
	seen := map[int64]struct{}{}
	for _, id := range ids {
		label, ok := badgeTable[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
