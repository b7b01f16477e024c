package fmf

// Defaults for fields absent from source records.
const (
	DefaultText             = "Unknown"
	DefaultPlayerLastName   = "Player"
	DefaultClubName         = "Unknown Club"
	DefaultCompetitionName  = "Unknown Competition"
	DefaultCompetitionType  = "League"
	DefaultPlayerAbility    = 50
	DefaultPlayerPotential  = 50
	DefaultNumericAttribute = 0
)

func recordID(r record, c Category, index int) string {
	return r.text(c.SyntheticID(index), "id")
}

// NormalizePlayer maps record-like node to a player, index is the position of
// the node in its extracted sequence. It never fails.
func NormalizePlayer(n *Node, index int) Player {
	r := record{node: n}
	return Player{
		ID:          recordID(r, CategoryPlayers, index),
		FirstName:   r.text(DefaultText, "first_name"),
		LastName:    r.text(DefaultPlayerLastName, "last_name"),
		CommonName:  r.optional("common_name"),
		DateOfBirth: r.text(DefaultText, "date_of_birth"),
		Nationality: r.text(DefaultText, "nation", "nationality"),
		Club:        r.optional("club", "team"),
		Position:    r.text(DefaultText, "position"),
		Ability:     int(r.integer(DefaultPlayerAbility, "current_ability", "ability")),
		Potential:   int(r.integer(DefaultPlayerPotential, "potential_ability", "potential")),
		Value:       r.integer(DefaultNumericAttribute, "value"),
	}
}

// NormalizeClub maps record-like node to a club.
func NormalizeClub(n *Node, index int) Club {
	r := record{node: n}
	return Club{
		ID:         recordID(r, CategoryClubs, index),
		Name:       r.text(DefaultClubName, "name"),
		ShortName:  r.optional("short_name"),
		Nation:     r.text(DefaultText, "nation", "country"),
		Reputation: int(r.integer(DefaultNumericAttribute, "reputation")),
		Balance:    r.integer(DefaultNumericAttribute, "balance", "cash"),
		Stadium:    r.optional("stadium"),
	}
}

// NormalizeCompetition maps record-like node to a competition.
func NormalizeCompetition(n *Node, index int) Competition {
	r := record{node: n}
	return Competition{
		ID:         recordID(r, CategoryCompetitions, index),
		Name:       r.text(DefaultCompetitionName, "name"),
		ShortName:  r.optional("short_name"),
		Nation:     r.text(DefaultText, "nation", "country"),
		Type:       r.text(DefaultCompetitionType, "type"),
		Reputation: int(r.integer(DefaultNumericAttribute, "reputation")),
	}
}
