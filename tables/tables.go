package tables

// Name tables shared by the CLI and the watcher.
// League and track order here is file order, which matches cup order in game.

var Leagues = []string{"Knight", "Queen", "King"}

// Tracks[league] lists the 5 tracks of that league.
var Tracks = [][]string{
	{"Mute City I", "Big Blue", "Sand Ocean", "Death Wind I", "Silence"},
	{"Mute City II", "Port Town I", "Red Canyon I", "White Land I", "White Land II"},
	{"Mute City III", "Death Wind II", "Port Town II", "Red Canyon II", "Fire Field"},
}

// This is the order they appear on the machine select screen.
var Cars = map[int]string{
	0: "Blue Falcon",
	1: "Wild Goose",
	2: "Golden Fox",
	3: "Fire Stingray",
}

var Modes = map[int]string{
	0: "Grand Prix",
	1: "Practice",
}

func League_map() map[int]string {
	ret := map[int]string{}
	for i, name := range Leagues {
		ret[i] = name
	}
	return ret
}

func Track_map(league int) map[int]string {
	ret := map[int]string{}
	if league < 0 || league >= len(Tracks) {
		return ret
	}
	for i, name := range Tracks[league] {
		ret[i] = name
	}
	return ret
}
