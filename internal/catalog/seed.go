package catalog

import "github.com/dmklda/farmandcity-sub002/internal/game/resources"

// DefaultSet is the built-in starter catalog, used when no catalog file
// is configured. Effect texts use the engine's effect grammar.
func DefaultSet() *Catalog {
	return New([]Card{
		{ID: "farm-wheat", Name: "Wheat Field", Type: TypeFarm, Rarity: RarityCommon,
			Cost:       resources.Resources{Materials: 1},
			EffectText: "produces 1 food per turn"},
		{ID: "farm-orchard", Name: "Orchard", Type: TypeFarm, Rarity: RarityCommon,
			Cost:       resources.Resources{Materials: 2},
			EffectText: "gain 2 food"},
		{ID: "farm-ranch", Name: "Cattle Ranch", Type: TypeFarm, Rarity: RarityUncommon,
			Cost:       resources.Resources{Materials: 2, Coins: 1},
			EffectText: "produces 2 food per turn. costs 1 material per turn"},
		{ID: "farm-mill", Name: "Windmill", Type: TypeFarm, Rarity: RarityUncommon,
			Cost:       resources.Resources{Materials: 3},
			EffectText: "produces 2 food when die = 4"},
		{ID: "city-market", Name: "Market Square", Type: TypeCity, Rarity: RarityCommon,
			Cost:       resources.Resources{Materials: 2},
			EffectText: "produces 2 coins per turn"},
		{ID: "city-quarry", Name: "Quarry", Type: TypeCity, Rarity: RarityCommon,
			Cost:       resources.Resources{Coins: 2},
			EffectText: "produces 1 material per turn"},
		{ID: "city-mint", Name: "Mint", Type: TypeCity, Rarity: RarityRare,
			Cost:       resources.Resources{Materials: 3, Coins: 2},
			EffectText: "produces 2 coins and 1 material per turn"},
		{ID: "city-tavern", Name: "Tavern", Type: TypeCity, Rarity: RarityUncommon,
			Cost:       resources.Resources{Coins: 3},
			EffectText: "produces 3 coins when die = 6"},
		{ID: "city-housing", Name: "Housing Block", Type: TypeCity, Rarity: RarityCommon,
			Cost:       resources.Resources{Materials: 2, Food: 1},
			EffectText: "gain 1 population"},
		{ID: "landmark-cathedral", Name: "Grand Cathedral", Type: TypeLandmark, Rarity: RarityLegendary,
			Cost:       resources.Resources{Materials: 5, Coins: 5},
			EffectText: "gain 2 reputation"},
		{ID: "landmark-aqueduct", Name: "Aqueduct", Type: TypeLandmark, Rarity: RarityRare,
			Cost:       resources.Resources{Materials: 4, Coins: 2},
			EffectText: "produces 1 food and 1 coin per turn"},
		{ID: "event-harvest", Name: "Harvest Festival", Type: TypeEvent, Rarity: RarityCommon,
			EffectText: "produces 1 food per turn"},
		{ID: "event-drought", Name: "Drought", Type: TypeEvent, Rarity: RarityCrisis,
			EffectText: "costs 1 food per turn"},
		{ID: "action-levy", Name: "Emergency Levy", Type: TypeAction, Rarity: RarityCommon,
			EffectText: "gain 2 coins"},
		{ID: "action-trade", Name: "Trade Caravan", Type: TypeAction, Rarity: RarityUncommon,
			Cost:       resources.Resources{Coins: 1},
			EffectText: "convert 2 food into 1 coin or 2 materials into 1 coin"},
		{ID: "magic-bounty", Name: "Ritual of Bounty", Type: TypeMagic, Rarity: RarityRare,
			Cost:       resources.Resources{Coins: 2},
			EffectText: "gain 3 food and 1 material"},
		{ID: "defense-walls", Name: "City Walls", Type: TypeDefense, Rarity: RarityUncommon,
			Cost:       resources.Resources{Materials: 3},
			EffectText: "gain 1 reputation"},
	})
}
