package bracket

import "strings"

// Catalogs holds the fixed card-category data the classifier matches
// against. All lookups are case-insensitive; keys are stored lowercased.
type Catalogs struct {
	massLandDenial    map[string]struct{}
	extraTurnChaining map[string]struct{}
	tutors            map[string]struct{}
	gameChangers      map[string]struct{}
	combos            map[comboKey]comboInfo
}

func nameSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

// DefaultCatalogs returns the built-in category data.
func DefaultCatalogs() *Catalogs {
	return &Catalogs{
		massLandDenial: nameSet(
			"Armageddon",
			"Ravages of War",
			"Catastrophe",
			"Decree of Annihilation",
			"Jokulhaups",
			"Obliterate",
			"Impending Disaster",
			"Fall of the Thran",
			"Sunder",
			"Winter Orb",
			"Static Orb",
			"Stasis",
			"Blood Moon",
			"Back to Basics",
			"Contamination",
			"Cataclysm",
			"Death Cloud",
			"Bend or Break",
			"Ruination",
			"Wildfire",
			"Destructive Force",
			"Vorinclex, Voice of Hunger",
			"Numot, the Devastator",
		),
		extraTurnChaining: nameSet(
			"Time Warp",
			"Temporal Manipulation",
			"Capture of Jingzhou",
			"Temporal Mastery",
			"Part the Waterveil",
			"Karn's Temporal Sundering",
			"Alrund's Epiphany",
			"Nexus of Fate",
			"Time Stretch",
			"Expropriate",
			"Temporal Trespass",
			"Beacon of Tomorrows",
			"Walk the Aeons",
		),
		tutors: nameSet(
			"Demonic Tutor",
			"Vampiric Tutor",
			"Imperial Seal",
			"Diabolic Intent",
			"Diabolic Tutor",
			"Grim Tutor",
			"Mystical Tutor",
			"Personal Tutor",
			"Enlightened Tutor",
			"Worldly Tutor",
			"Eladamri's Call",
			"Green Sun's Zenith",
			"Chord of Calling",
			"Finale of Devastation",
			"Bring to Light",
			"Eldritch Evolution",
			"Neoform",
			"Fauna Shaman",
			"Stoneforge Mystic",
			"Open the Armory",
			"Idyllic Tutor",
			"Solve the Equation",
			"Wishclaw Talisman",
			"Profane Tutor",
		),
		gameChangers: nameSet(
			"Ancient Tomb",
			"Bolas's Citadel",
			"Cyclonic Rift",
			"Drannith Magistrate",
			"Expropriate",
			"Field of the Dead",
			"Fierce Guardianship",
			"Glacial Chasm",
			"Grand Arbiter Augustin IV",
			"Jeska's Will",
			"Kinnan, Bonder Prodigy",
			"Mystic Remora",
			"Nexus of Fate",
			"Opposition Agent",
			"Orcish Bowmasters",
			"Rhystic Study",
			"Smothering Tithe",
			"Teferi's Protection",
			"Tergrid, God of Fright",
			"Thassa's Oracle",
			"The One Ring",
			"Underworld Breach",
			"Urza, Lord High Artificer",
			"Vampiric Tutor",
			"Demonic Tutor",
		),
		combos: comboTable(),
	}
}

// holdings collects everything detection found in one deck.
type holdings struct {
	massLandDenial []string
	extraTurns     []string
	tutors         []string
	gameChangers   []string
	combos         []ComboMatch

	usesChaining  bool
	hasEarlyCombo bool
}

// scan walks the distinct card names once and buckets them by category.
func (c *Catalogs) scan(names []string) *holdings {
	h := &holdings{}

	distinct := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, name)
	}

	for _, name := range distinct {
		key := strings.ToLower(name)

		if _, ok := c.massLandDenial[key]; ok {
			h.massLandDenial = append(h.massLandDenial, name)
		}

		_, chaining := c.extraTurnChaining[key]
		if chaining || strings.Contains(key, "extra turn") || strings.Contains(key, "additional turn") {
			h.extraTurns = append(h.extraTurns, name)
		}
		if chaining {
			h.usesChaining = true
		}

		if _, ok := c.tutors[key]; ok {
			h.tutors = append(h.tutors, name)
		}
		if _, ok := c.gameChangers[key]; ok {
			h.gameChangers = append(h.gameChangers, name)
		}
	}

	// Every unordered pair of distinct names, considered exactly once.
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			info, ok := c.combos[newComboKey(distinct[i], distinct[j])]
			if !ok {
				continue
			}
			match := ComboMatch{
				Cards:       [2]string{distinct[i], distinct[j]},
				IsEarlyGame: info.TotalCost < earlyGameComboCost,
			}
			h.combos = append(h.combos, match)
			if match.IsEarlyGame {
				h.hasEarlyCombo = true
			}
		}
	}

	return h
}
