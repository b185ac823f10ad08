package social

// DefaultUsers returns the demo roster seeded on first run. All demo
// accounts share the password "password".
func DefaultUsers() []User {
	return []User{
		{
			ID:            "user1",
			Username:      "Avery Quinn",
			Email:         "avery@demo.com",
			Password:      "password",
			ProfilePicURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Alex",
			Bio:           "Digital creator & tech enthusiast",
			Following:     []string{},
		},
		{
			ID:            "user2",
			Username:      "Jordan Lee",
			Email:         "jordan@demo.com",
			Password:      "password",
			ProfilePicURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Jordan",
			Bio:           "Living my best life",
			Following:     []string{},
		},
		{
			ID:            "user3",
			Username:      "Taylor Brooks",
			Email:         "taylor@demo.com",
			Password:      "password",
			ProfilePicURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Taylor",
			Bio:           "Coffee lover | Travel addict",
			Following:     []string{},
		},
	}
}

// DefaultGroups returns the demo groups seeded on first run.
func DefaultGroups() []Group {
	return []Group{
		{
			ID:          "group1",
			Name:        "Tech Enthusiasts",
			Description: "Discuss the latest in technology and innovation",
			OwnerID:     "user1",
			MemberIDs:   []string{"user1", "user2"},
			Messages:    []Message{},
		},
		{
			ID:          "group2",
			Name:        "Travel Lovers",
			Description: "Share your travel experiences and tips",
			OwnerID:     "user2",
			MemberIDs:   []string{"user2", "user3"},
			Messages:    []Message{},
		},
		{
			ID:          "group3",
			Name:        "Photography",
			Description: "For photography enthusiasts and professionals",
			OwnerID:     "user3",
			MemberIDs:   []string{"user1", "user3"},
			Messages:    []Message{},
		},
	}
}
