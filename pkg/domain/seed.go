package domain

// SeedMembers returns the fallback household used when no stored state can be loaded.
// Every seeded chore is due on today.
func SeedMembers(today Date) []FamilyMember {
	return []FamilyMember{
		{ID: "1", Name: "Emma", Initial: "E", Color: Palette[0], Chores: []Chore{
			{ID: "c1", Name: "Make bed", DueDate: today},
		}},
		{ID: "2", Name: "Alex", Initial: "A", Color: Palette[1], Chores: []Chore{
			{ID: "c2", Name: "Clean room", DueDate: today},
		}},
		{ID: "3", Name: "Sam", Initial: "S", Color: Palette[2], Chores: []Chore{
			{ID: "c3", Name: "Do homework", DueDate: today},
		}},
	}
}

// SeedTemplates returns the fallback template list, which is empty.
func SeedTemplates() []ChoreTemplate {
	return []ChoreTemplate{}
}
